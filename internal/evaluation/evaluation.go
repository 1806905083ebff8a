// Package evaluation reads model evaluation statistics and selects
// classification thresholds from them.
package evaluation

import (
	"github.com/rotisserie/eris"
)

// ErrUnknownCriterion is returned for a threshold criterion the selector
// does not recognize. This is a configuration error and aborts the run.
var ErrUnknownCriterion = eris.New("evaluation: unknown threshold criterion")

// ErrMissingStatistic is returned when a record lacks the statistic the
// chosen criterion needs. Fatal for the unit, not the run.
var ErrMissingStatistic = eris.New("evaluation: missing statistic")

// Criterion names a threshold-selection rule computed during model fitting.
type Criterion string

const (
	// Kappa maximizes Cohen's kappa.
	Kappa Criterion = "kappa"
	// SpecSens maximizes the sum of sensitivity and specificity.
	SpecSens Criterion = "spec_sens"
	// NoOmission is the highest cutoff with zero omitted presences.
	NoOmission Criterion = "no_omission"
	// Prevalence matches modeled prevalence to observed prevalence.
	Prevalence Criterion = "prevalence"
	// EqualSensSpec is the cutoff where sensitivity equals specificity.
	EqualSensSpec Criterion = "equal_sens_spec"
	// Sensitivity is a fixed caller-supplied target sensitivity.
	Sensitivity Criterion = "sensitivity"
)

// Criteria lists every recognized criterion.
var Criteria = []Criterion{Kappa, SpecSens, NoOmission, Prevalence, EqualSensSpec, Sensitivity}

// ParseCriterion validates a criterion name.
func ParseCriterion(s string) (Criterion, error) {
	for _, c := range Criteria {
		if Criterion(s) == c {
			return c, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownCriterion, "evaluation: %q", s)
}

// Record holds one fitted model's evaluation statistics: discriminative
// skill (AUC) and the per-criterion cutoffs computed during fitting.
// Created once per (species, model type); read-only thereafter.
type Record struct {
	Species    string
	Model      string
	AUC        float64
	Thresholds map[Criterion]float64
}

// SelectThreshold extracts the cutoff for the chosen criterion and the
// record's AUC as the downstream ensemble weight. Pure lookup: nothing is
// refitted, and repeated calls return identical values.
func SelectThreshold(rec *Record, criterion Criterion) (cutoff, weight float64, err error) {
	if _, perr := ParseCriterion(string(criterion)); perr != nil {
		return 0, 0, perr
	}
	cutoff, ok := rec.Thresholds[criterion]
	if !ok {
		return 0, 0, eris.Wrapf(ErrMissingStatistic,
			"evaluation: %s/%s record has no %s threshold", rec.Species, rec.Model, criterion)
	}
	if rec.AUC < 0 || rec.AUC > 1 {
		return 0, 0, eris.Wrapf(ErrMissingStatistic,
			"evaluation: %s/%s AUC %v outside [0,1]", rec.Species, rec.Model, rec.AUC)
	}
	return cutoff, rec.AUC, nil
}

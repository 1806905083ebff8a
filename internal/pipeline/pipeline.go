// Package pipeline orchestrates the per-species batch across climate scenarios.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecotope/rangecast/internal/config"
	"github.com/ecotope/rangecast/internal/ensemble"
	"github.com/ecotope/rangecast/internal/evaluation"
	"github.com/ecotope/rangecast/internal/grid"
	"github.com/ecotope/rangecast/internal/points"
	"github.com/ecotope/rangecast/internal/rarefy"
	"github.com/ecotope/rangecast/internal/raster"
	"github.com/ecotope/rangecast/internal/sampler"
	"github.com/ecotope/rangecast/internal/store"
	"github.com/ecotope/rangecast/internal/vector"
)

// Sources supplies the pipeline's inputs. The external collaborators
// (occurrence retrieval, classifier fitting) stand behind this interface.
type Sources interface {
	Species(ctx context.Context) ([]string, error)
	Occurrences(ctx context.Context, species string) (*points.Set, error)
	Evaluations(ctx context.Context, species string) (map[string]*evaluation.Record, error)
	Suitability(ctx context.Context, species, model, scenario string) (*raster.Raster, error)
}

// Outputs receives the pipeline's products.
type Outputs interface {
	WritePoints(set *points.Set) error
	WriteEnsemble(species, scenario string, method ensemble.Method, r *raster.Raster) error
}

// Pipeline runs the full batch: rarefaction, sampling, threshold selection,
// and ensemble combination for every species × scenario.
type Pipeline struct {
	cfg       *config.Config
	grid      *grid.Grid
	regions   []vector.Ecoregion
	scenarios []string
	sources   Sources
	outputs   Outputs
	audit     store.Store

	criterion evaluation.Criterion
	methods   []ensemble.Method
}

// New validates the run-level configuration and assembles a pipeline.
// Unknown criterion or method names are configuration errors and fail here,
// before any unit starts.
func New(cfg *config.Config, g *grid.Grid, regions []vector.Ecoregion, scenarios []string,
	sources Sources, outputs Outputs, audit store.Store) (*Pipeline, error) {

	criterion, err := evaluation.ParseCriterion(cfg.Evaluation.Criterion)
	if err != nil {
		return nil, err
	}
	methods := make([]ensemble.Method, 0, len(cfg.Ensemble.Methods))
	for _, m := range cfg.Ensemble.Methods {
		method, err := ensemble.ParseMethod(m)
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	if len(cfg.Ensemble.Models) == 0 {
		return nil, eris.New("pipeline: no model types configured")
	}

	return &Pipeline{
		cfg:       cfg,
		grid:      g,
		regions:   regions,
		scenarios: scenarios,
		sources:   sources,
		outputs:   outputs,
		audit:     audit,
		criterion: criterion,
		methods:   methods,
	}, nil
}

// Summary counts unit outcomes of one run.
type Summary struct {
	RunID     string
	Succeeded int64
	Skipped   int64
	Failed    int64
}

// Run processes every species on a bounded worker pool. Units are
// independent: a failing species is recorded and logged without aborting
// its siblings. Only the worker-pool context itself can abort the run.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	species, err := p.sources.Species(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list species")
	}

	cfgJSON, err := json.Marshal(p.cfg)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: marshal config")
	}
	runID, err := p.audit.CreateRun(ctx, string(cfgJSON))
	if err != nil {
		return nil, err
	}

	zap.L().Info("starting run",
		zap.String("run_id", runID),
		zap.Int("species", len(species)),
		zap.Strings("scenarios", p.scenarios),
		zap.Int("workers", p.cfg.Pipeline.Workers),
	)

	var succeeded, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Pipeline.Workers)

	for _, sp := range species {
		sp := sp
		g.Go(func() error {
			log := zap.L().With(zap.String("species", sp), zap.String("run_id", runID))

			switch err := p.processSpecies(gctx, runID, sp, log); {
			case err == nil:
				succeeded.Add(1)
			case eris.Is(err, rarefy.ErrInsufficientPoints):
				skipped.Add(1)
				log.Warn("species excluded from modeling", zap.Error(err))
			default:
				failed.Add(1)
				log.Error("species failed", zap.Error(err))
			}
			return nil // unit failures never abort siblings
		})
	}

	if err := g.Wait(); err != nil {
		_ = p.audit.FinishRun(ctx, runID, store.RunFailed)
		return nil, eris.Wrap(err, "pipeline: run")
	}

	status := store.RunComplete
	if err := p.audit.FinishRun(ctx, runID, status); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:     runID,
		Succeeded: succeeded.Load(),
		Skipped:   skipped.Load(),
		Failed:    failed.Load(),
	}
	zap.L().Info("run complete",
		zap.String("run_id", runID),
		zap.Int64("succeeded", summary.Succeeded),
		zap.Int64("skipped", summary.Skipped),
		zap.Int64("failed", summary.Failed),
	)
	return summary, nil
}

// processSpecies runs one species end to end: rarefy, sample both
// non-presence classes, then combine every scenario's model outputs.
func (p *Pipeline) processSpecies(ctx context.Context, runID, species string, log *zap.Logger) error {
	occ, err := p.sources.Occurrences(ctx, species)
	if err != nil {
		p.record(ctx, runID, species, "", "occurrences", store.StatusFailed, err.Error(), 0)
		return err
	}

	rarefied, err := rarefy.Rarefy(occ, p.grid, p.cfg.Study.MinOccurrence)
	if err != nil {
		status := store.StatusFailed
		if eris.Is(err, rarefy.ErrInsufficientPoints) {
			status = store.StatusSkipped
		}
		p.record(ctx, runID, species, "", "rarefy", status, err.Error(), 0)
		return err
	}
	if err := p.outputs.WritePoints(rarefied); err != nil {
		p.record(ctx, runID, species, "", "rarefy", store.StatusFailed, err.Error(), 0)
		return err
	}
	p.record(ctx, runID, species, "", "rarefy", store.StatusOK,
		fmt.Sprintf("%d of %d points retained", rarefied.Len(), occ.Len()), 0)

	if err := p.sampleClass(ctx, runID, rarefied, points.Background); err != nil {
		return err
	}
	if err := p.sampleClass(ctx, runID, rarefied, points.PseudoAbsence); err != nil {
		return err
	}

	records, err := p.sources.Evaluations(ctx, species)
	if err != nil {
		p.record(ctx, runID, species, "", "threshold", store.StatusFailed, err.Error(), 0)
		return err
	}
	outputsByModel := make(map[string]struct{ cutoff, weight float64 }, len(p.cfg.Ensemble.Models))
	for _, model := range p.cfg.Ensemble.Models {
		rec, ok := records[model]
		if !ok {
			err := eris.Errorf("pipeline: species %s has no evaluation record for model %s", species, model)
			p.record(ctx, runID, species, "", "threshold", store.StatusFailed, err.Error(), 0)
			return err
		}
		cutoff, weight, err := evaluation.SelectThreshold(rec, p.criterion)
		if err != nil {
			p.record(ctx, runID, species, "", "threshold", store.StatusFailed, err.Error(), 0)
			return err
		}
		outputsByModel[model] = struct{ cutoff, weight float64 }{cutoff, weight}
	}

	// Scenarios combine independently; one broken scenario does not stop
	// the others, but marks the species failed.
	var scenarioErr error
	for _, scen := range p.scenarios {
		if err := p.combineScenario(ctx, runID, species, scen, outputsByModel); err != nil {
			log.Error("scenario combination failed",
				zap.String("scenario", scen), zap.Error(err))
			scenarioErr = err
		}
	}
	return scenarioErr
}

// sampleClass draws one non-presence class for a species and writes it out.
// A partial sample is a warning, not a failure.
func (p *Pipeline) sampleClass(ctx context.Context, runID string, presences *points.Set, class points.Class) error {
	req := sampler.Request{
		Species:     presences.Species,
		Type:        class,
		Seed:        unitSeed(p.cfg.Sampling.Seed, presences.Species, string(class)),
		MaxAttempts: p.cfg.Sampling.MaxAttempts,
	}
	switch class {
	case points.Background:
		req.Count = p.cfg.Sampling.BackgroundCount
		req.Density = p.cfg.Sampling.BackgroundDensity
	case points.PseudoAbsence:
		req.Count = p.cfg.Sampling.PseudoCount
		req.Density = p.cfg.Sampling.PseudoDensity
		req.Buffer = p.cfg.Sampling.Buffer
	}

	set, err := sampler.Sample(ctx, req, presences, p.regions, p.grid)
	status := store.StatusOK
	detail := fmt.Sprintf("%d points", set.Len())
	switch {
	case err == nil:
	case eris.Is(err, sampler.ErrPartialSample):
		status = store.StatusPartial
		detail = err.Error()
	default:
		p.record(ctx, runID, presences.Species, "", "sample_"+string(class), store.StatusFailed, err.Error(), req.Seed)
		return err
	}

	if werr := p.outputs.WritePoints(set); werr != nil {
		p.record(ctx, runID, presences.Species, "", "sample_"+string(class), store.StatusFailed, werr.Error(), req.Seed)
		return werr
	}
	p.record(ctx, runID, presences.Species, "", "sample_"+string(class), status, detail, req.Seed)
	return nil
}

// combineScenario gathers every model's suitability raster for one scenario
// and writes the configured ensembles. The gather is the barrier: combination
// starts only once all model outputs of the (species, scenario) pair are in.
func (p *Pipeline) combineScenario(ctx context.Context, runID, species, scen string,
	thresholds map[string]struct{ cutoff, weight float64 }) error {

	outputs := make([]ensemble.ModelOutput, 0, len(p.cfg.Ensemble.Models))
	for _, model := range p.cfg.Ensemble.Models {
		r, err := p.sources.Suitability(ctx, species, model, scen)
		if err != nil {
			p.record(ctx, runID, species, scen, "ensemble", store.StatusFailed, err.Error(), 0)
			return eris.Wrapf(err, "pipeline: %s/%s suitability for model %s", species, scen, model)
		}
		t := thresholds[model]
		outputs = append(outputs, ensemble.ModelOutput{
			Model:     model,
			Raster:    r,
			Threshold: t.cutoff,
			Weight:    t.weight,
		})
	}

	for _, method := range p.methods {
		combined, err := ensemble.Combine(species, outputs, method)
		if err != nil {
			p.record(ctx, runID, species, scen, "ensemble", store.StatusFailed, err.Error(), 0)
			return err
		}
		if err := p.outputs.WriteEnsemble(species, scen, method, combined); err != nil {
			p.record(ctx, runID, species, scen, "ensemble", store.StatusFailed, err.Error(), 0)
			return err
		}
	}

	p.record(ctx, runID, species, scen, "ensemble", store.StatusOK,
		fmt.Sprintf("%d methods over %d models", len(p.methods), len(outputs)), 0)
	return nil
}

// record writes a unit outcome; audit failures are logged, never fatal.
func (p *Pipeline) record(ctx context.Context, runID, species, scen, stage, status, detail string, seed int64) {
	err := p.audit.RecordUnit(ctx, store.Unit{
		RunID:    runID,
		Species:  species,
		Scenario: scen,
		Stage:    stage,
		Status:   status,
		Detail:   detail,
		Seed:     seed,
	})
	if err != nil {
		zap.L().Warn("failed to record unit outcome",
			zap.String("species", species),
			zap.String("stage", stage),
			zap.Error(err),
		)
	}
}

// unitSeed derives a reproducible per-unit seed from the configured base
// seed, so retries of a unit draw the same points.
func unitSeed(base int64, parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	seed := base ^ int64(h.Sum64())
	if seed == 0 {
		seed = base | 1
	}
	return seed
}

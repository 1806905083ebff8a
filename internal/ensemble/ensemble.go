// Package ensemble combines per-model suitability rasters into consensus maps.
package ensemble

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/ecotope/rangecast/internal/grid"
	"github.com/ecotope/rangecast/internal/raster"
)

// ErrGridMismatch means the input rasters do not share extent, resolution,
// and shape. Fatal for the unit.
var ErrGridMismatch = eris.New("ensemble: input rasters on different grids")

// Method selects how binarized model outputs are combined per cell.
type Method string

const (
	// MajorityPA is an unweighted presence/absence majority vote.
	MajorityPA Method = "majority_pa"
	// Weighted averages binarized outputs weighted by model AUC.
	Weighted Method = "weighted"
)

// ParseMethod validates a combination method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MajorityPA, Weighted:
		return Method(s), nil
	}
	return "", eris.Errorf("ensemble: unknown method %q", s)
}

// ModelOutput pairs one classifier's continuous suitability raster with its
// own classification threshold and its AUC weight.
type ModelOutput struct {
	Model     string
	Raster    *raster.Raster
	Threshold float64
	Weight    float64
}

// Combine converts each model's raster to presence/absence at its own
// threshold, then combines across models. For MajorityPA the output cell is
// 1 when presence votes reach ceil(n/2) over the models valid at that cell,
// with even-split ties resolving to absence. For Weighted the output is
// Σ(wᵢ·bᵢ)/Σwᵢ in [0,1], not re-thresholded. A cell with no valid model
// (or zero total weight) is no-data. The same call serves present-climate
// and per-scenario future outputs; scenarios are never mixed in one call.
func Combine(species string, outputs []ModelOutput, method Method) (*raster.Raster, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, eris.Errorf("ensemble: species %s has no model outputs", species)
	}

	g := outputs[0].Raster.Grid
	for _, out := range outputs[1:] {
		if !g.SameShape(out.Raster.Grid) {
			return nil, eris.Wrapf(ErrGridMismatch, "ensemble: species %s model %s", species, out.Model)
		}
	}

	combined := raster.New(g)
	for id := grid.CellID(0); int(id) < g.NumCells(); id++ {
		var votes, valid int
		var weightedSum, totalWeight float64

		for _, out := range outputs {
			score, ok := out.Raster.At(id)
			if !ok {
				continue // no-data cells are excluded from tallies
			}
			valid++
			var b float64
			if score >= out.Threshold {
				b = 1
				votes++
			}
			weightedSum += out.Weight * b
			totalWeight += out.Weight
		}

		switch method {
		case MajorityPA:
			if valid == 0 {
				continue // stays no-data
			}
			// Strict majority: even-split ties resolve to absence.
			need := valid/2 + 1
			if votes >= need {
				combined.Set(id, 1)
			} else {
				combined.Set(id, 0)
			}
		case Weighted:
			if totalWeight <= 0 {
				continue
			}
			combined.Set(id, weightedSum/totalWeight)
		}
	}

	return combined, nil
}

// Binarize converts a continuous raster to {0,1} at the given threshold,
// preserving no-data cells. Exposed for reporting; Combine binarizes inline.
func Binarize(r *raster.Raster, threshold float64) *raster.Raster {
	out := raster.New(r.Grid)
	for i, v := range r.Values {
		if math.IsNaN(v) {
			continue
		}
		if v >= threshold {
			out.Values[i] = 1
		} else {
			out.Values[i] = 0
		}
	}
	return out
}

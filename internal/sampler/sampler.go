// Package sampler draws background and pseudo-absence points from ecoregions.
package sampler

import (
	"context"
	"math"
	"math/rand"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ecotope/rangecast/internal/grid"
	"github.com/ecotope/rangecast/internal/points"
	"github.com/ecotope/rangecast/internal/vector"
)

// ErrPartialSample signals that the retry budget ran out before the target
// count was met. The points drawn so far are still returned; the training
// stage tolerates fewer points than requested.
var ErrPartialSample = eris.New("sampler: target count not met")

// ErrNoEligibleRegions means no ecoregion contains any presence point, so
// there is nowhere plausible to sample from. Fatal for the unit.
var ErrNoEligibleRegions = eris.New("sampler: no eligible ecoregions")

// defaultAttemptsPerPoint bounds rejection sampling at this many candidate
// draws per requested point when the caller does not set a budget.
const defaultAttemptsPerPoint = 100

// containmentTriesPerDraw bounds the bbox redraws spent locating a point
// inside one picked region before the draw is abandoned.
const containmentTriesPerDraw = 64

// Request describes one sampling call. Exactly one of Count and Density
// drives the target: a positive Count is a fixed total, otherwise the
// target is Density × eligible area.
type Request struct {
	Species     string
	Type        points.Class // Background or PseudoAbsence
	Count       int
	Density     float64
	Buffer      float64 // exclusion radius around presences (pseudo-absence only)
	Seed        int64
	MaxAttempts int
}

// Sample draws points uniformly at random from the union of ecoregions that
// contain at least one presence point. Candidates falling on invalid grid
// cells are rejected; pseudo-absence candidates are additionally rejected
// within Buffer of any presence. The result records the seed for audit.
func Sample(ctx context.Context, req Request, presences *points.Set, regions []vector.Ecoregion, g *grid.Grid) (*points.Set, error) {
	if req.Type != points.Background && req.Type != points.PseudoAbsence {
		return nil, eris.Errorf("sampler: type must be background or pseudoabsence, got %q", req.Type)
	}
	if req.Type == points.PseudoAbsence && req.Buffer <= 0 {
		return nil, eris.New("sampler: pseudo-absence sampling requires a positive buffer")
	}

	eligible := EligibleRegions(regions, presences.Points)
	if len(eligible) == 0 {
		return nil, eris.Wrapf(ErrNoEligibleRegions, "sampler: species %s", req.Species)
	}

	areas := make([]float64, len(eligible))
	var totalArea float64
	for i := range eligible {
		areas[i] = eligible[i].Area()
		totalArea += areas[i]
	}
	if totalArea <= 0 {
		return nil, eris.Wrapf(ErrNoEligibleRegions, "sampler: species %s eligible area is zero", req.Species)
	}

	target := req.Count
	if target <= 0 {
		target = int(math.Round(req.Density * totalArea))
	}

	out := &points.Set{Species: req.Species, Class: req.Type, Seed: req.Seed}
	if target <= 0 {
		return out, nil
	}

	budget := req.MaxAttempts
	if budget <= 0 {
		budget = target * defaultAttemptsPerPoint
	}

	var exclusion *PointIndex
	if req.Type == points.PseudoAbsence {
		exclusion = NewPointIndex(presences.Points, req.Buffer)
	}

	rng := rand.New(rand.NewSource(req.Seed))

	for attempts := 0; out.Len() < target && attempts < budget; attempts++ {
		if err := ctx.Err(); err != nil {
			return out, eris.Wrap(err, "sampler: cancelled")
		}

		region := &eligible[pickRegion(rng, areas, totalArea)]
		x, y, ok := drawInRegion(rng, region)
		if !ok {
			continue
		}
		if g != nil {
			id := g.CellOf(x, y)
			if id == grid.OutOfBounds || !g.Valid(id) {
				continue
			}
		}
		if exclusion != nil && exclusion.Within(x, y, req.Buffer) {
			continue
		}
		out.Points = append(out.Points, points.Point{X: x, Y: y})
	}

	if out.Len() < target {
		zap.L().Warn("sampler: retry budget exhausted",
			zap.String("species", req.Species),
			zap.String("type", string(req.Type)),
			zap.Int("drawn", out.Len()),
			zap.Int("target", target),
		)
		return out, eris.Wrapf(ErrPartialSample,
			"sampler: species %s drew %d of %d %s points", req.Species, out.Len(), target, req.Type)
	}

	return out, nil
}

// EligibleRegions returns the ecoregions containing at least one presence
// point. Only these are plausible sources of non-presence environment.
func EligibleRegions(regions []vector.Ecoregion, presences []points.Point) []vector.Ecoregion {
	var eligible []vector.Ecoregion
	for i := range regions {
		for _, p := range presences {
			if regions[i].Contains(p.X, p.Y) {
				eligible = append(eligible, regions[i])
				break
			}
		}
	}
	return eligible
}

// pickRegion selects a region index with probability proportional to area.
func pickRegion(rng *rand.Rand, areas []float64, total float64) int {
	u := rng.Float64() * total
	var cum float64
	for i, a := range areas {
		cum += a
		if u < cum {
			return i
		}
	}
	return len(areas) - 1
}

// drawInRegion draws bounding-box candidates until one falls inside the
// region. Containment rejections stay within the same region pick, so
// acceptance stays proportional to area regardless of how much of its
// bounding box each polygon fills.
func drawInRegion(rng *rand.Rand, region *vector.Ecoregion) (x, y float64, ok bool) {
	for i := 0; i < containmentTriesPerDraw; i++ {
		x, y = randomInBounds(rng, region)
		if region.Contains(x, y) {
			return x, y, true
		}
	}
	return 0, 0, false
}

// randomInBounds draws a uniform point in the region's bounding box.
func randomInBounds(rng *rand.Rand, region *vector.Ecoregion) (x, y float64) {
	b := region.Bounds()
	x = b.Min(0) + rng.Float64()*(b.Max(0)-b.Min(0))
	y = b.Min(1) + rng.Float64()*(b.Max(1)-b.Min(1))
	return x, y
}

// Package rarefy deduplicates occurrence points against the reference grid.
package rarefy

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ecotope/rangecast/internal/grid"
	"github.com/ecotope/rangecast/internal/points"
)

// ErrInsufficientPoints marks a species whose rarefied occurrence count
// falls below the pipeline minimum. The species is excluded from modeling;
// the run as a whole continues.
var ErrInsufficientPoints = eris.New("rarefy: insufficient points")

// Rarefy reduces a point set so at most one point occupies each grid cell.
// The first point encountered per cell wins, in input order: this is a
// dedup step, not a selection step. Points outside the grid extent or on
// invalid (no-data) cells are dropped. Returns ErrInsufficientPoints when
// fewer than minCount points survive.
func Rarefy(set *points.Set, g *grid.Grid, minCount int) (*points.Set, error) {
	seen := make(map[grid.CellID]struct{}, len(set.Points))
	out := &points.Set{Species: set.Species, Class: set.Class}

	var outOfBounds, invalid, duplicate int
	for _, p := range set.Points {
		id := g.CellOf(p.X, p.Y)
		if id == grid.OutOfBounds {
			outOfBounds++
			continue
		}
		if !g.Valid(id) {
			invalid++
			continue
		}
		if _, ok := seen[id]; ok {
			duplicate++
			continue
		}
		seen[id] = struct{}{}
		out.Points = append(out.Points, p)
	}

	zap.L().Debug("rarefied point set",
		zap.String("species", set.Species),
		zap.Int("input", len(set.Points)),
		zap.Int("retained", out.Len()),
		zap.Int("out_of_bounds", outOfBounds),
		zap.Int("no_data", invalid),
		zap.Int("duplicate_cell", duplicate),
	)

	if out.Len() < minCount {
		return out, eris.Wrapf(ErrInsufficientPoints,
			"rarefy: species %s has %d usable points, need %d", set.Species, out.Len(), minCount)
	}

	return out, nil
}

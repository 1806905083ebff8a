// Package raster provides grid-aligned value arrays and their ESRI ASCII form.
package raster

import (
	"math"

	"github.com/ecotope/rangecast/internal/grid"
)

// Raster is a grid-aligned array of continuous scores. Cells are indexed by
// grid.CellID (row-major from the south-west corner); math.NaN() encodes
// "no data" in memory.
type Raster struct {
	Grid   *grid.Grid
	Values []float64
}

// New allocates a raster aligned to g with every cell set to no-data.
func New(g *grid.Grid) *Raster {
	values := make([]float64, g.NumCells())
	for i := range values {
		values[i] = math.NaN()
	}
	return &Raster{Grid: g, Values: values}
}

// At returns the value at id and whether the cell holds data.
func (r *Raster) At(id grid.CellID) (float64, bool) {
	if id == grid.OutOfBounds || int(id) >= len(r.Values) {
		return 0, false
	}
	v := r.Values[id]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Set stores a value at id. Setting math.NaN() marks the cell no-data.
func (r *Raster) Set(id grid.CellID, v float64) {
	if id == grid.OutOfBounds || int(id) >= len(r.Values) {
		return
	}
	r.Values[id] = v
}

// Mask returns the per-cell validity of the raster: true where data is defined.
// The result is suitable for grid.SetMask, making the raster the canonical
// study-area mask.
func (r *Raster) Mask() []bool {
	mask := make([]bool, len(r.Values))
	for i, v := range r.Values {
		mask[i] = !math.IsNaN(v)
	}
	return mask
}

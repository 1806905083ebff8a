// Package grid defines the study-area reference grid and the coordinate-to-cell index.
package grid

import (
	"math"

	"github.com/rotisserie/eris"
)

// ErrOutOfBounds is returned for coordinates outside the grid extent.
// Callers are expected to drop the offending point rather than abort.
var ErrOutOfBounds = eris.New("grid: coordinate out of bounds")

// CellID identifies a single grid cell as row*Cols+col.
type CellID int

// OutOfBounds is the sentinel CellID for coordinates outside the extent.
const OutOfBounds CellID = -1

// Extent is the geographic bounding box of the study area.
type Extent struct {
	MinX float64 `yaml:"min_x" mapstructure:"min_x"`
	MinY float64 `yaml:"min_y" mapstructure:"min_y"`
	MaxX float64 `yaml:"max_x" mapstructure:"max_x"`
	MaxY float64 `yaml:"max_y" mapstructure:"max_y"`
}

// Width returns the extent width in map units.
func (e Extent) Width() float64 { return e.MaxX - e.MinX }

// Height returns the extent height in map units.
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// Contains reports whether (x, y) falls inside the extent.
// The max edges are exclusive so each coordinate maps to exactly one cell.
func (e Extent) Contains(x, y float64) bool {
	return x >= e.MinX && x < e.MaxX && y >= e.MinY && y < e.MaxY
}

// Grid is the single source of truth for cell geometry. It is created once
// per study area and shared read-only by every sampler and combiner.
type Grid struct {
	Extent   Extent
	CellSize float64
	Rows     int
	Cols     int

	valid []bool // per-cell validity mask; nil means all cells valid
}

// New creates a grid covering extent at the given cell size. The extent is
// snapped outward so an integer number of cells covers it.
func New(extent Extent, cellSize float64) (*Grid, error) {
	if cellSize <= 0 {
		return nil, eris.New("grid: cell size must be positive")
	}
	if extent.Width() <= 0 || extent.Height() <= 0 {
		return nil, eris.New("grid: extent is empty")
	}

	cols := int(math.Ceil(extent.Width() / cellSize))
	rows := int(math.Ceil(extent.Height() / cellSize))
	extent.MaxX = extent.MinX + float64(cols)*cellSize
	extent.MaxY = extent.MinY + float64(rows)*cellSize

	return &Grid{Extent: extent, CellSize: cellSize, Rows: rows, Cols: cols}, nil
}

// NumCells returns the total cell count.
func (g *Grid) NumCells() int { return g.Rows * g.Cols }

// CellOf maps a coordinate to the cell containing it using floor division
// of the offsets from the grid origin. Coordinates outside the extent map
// to OutOfBounds. No side effects.
func (g *Grid) CellOf(x, y float64) CellID {
	if !g.Extent.Contains(x, y) {
		return OutOfBounds
	}
	col := int(math.Floor((x - g.Extent.MinX) / g.CellSize))
	row := int(math.Floor((y - g.Extent.MinY) / g.CellSize))
	return CellID(row*g.Cols + col)
}

// RowCol splits a CellID into row and column indices.
func (g *Grid) RowCol(id CellID) (row, col int) {
	return int(id) / g.Cols, int(id) % g.Cols
}

// CellCenter returns the center coordinate of a cell.
func (g *Grid) CellCenter(id CellID) (x, y float64) {
	row, col := g.RowCol(id)
	x = g.Extent.MinX + (float64(col)+0.5)*g.CellSize
	y = g.Extent.MinY + (float64(row)+0.5)*g.CellSize
	return x, y
}

// SetMask installs a per-cell validity mask. A cell is invalid where the
// study area's environmental value is undefined. Passing nil clears the
// mask, making every in-extent cell valid.
func (g *Grid) SetMask(valid []bool) error {
	if valid != nil && len(valid) != g.NumCells() {
		return eris.Errorf("grid: mask length %d does not match %d cells", len(valid), g.NumCells())
	}
	g.valid = valid
	return nil
}

// Valid reports whether the cell carries defined environmental data.
// OutOfBounds is never valid.
func (g *Grid) Valid(id CellID) bool {
	if id == OutOfBounds || int(id) >= g.NumCells() {
		return false
	}
	if g.valid == nil {
		return true
	}
	return g.valid[id]
}

// SameShape reports whether two grids share extent, resolution, and shape.
func (g *Grid) SameShape(o *Grid) bool {
	return g.Rows == o.Rows && g.Cols == o.Cols &&
		g.CellSize == o.CellSize && g.Extent == o.Extent
}

package sampler

import (
	"math"

	"github.com/ecotope/rangecast/internal/points"
)

// bucketKey addresses a cell in the point index's own bucketing, which is
// independent of the study grid.
type bucketKey struct {
	col int
	row int
}

// PointIndex is a grid-bucketed index over a fixed point set, sized so a
// radius query only inspects the 3×3 bucket neighborhood of the query point.
type PointIndex struct {
	cellSize float64
	buckets  map[bucketKey][]points.Point
}

// NewPointIndex indexes pts for distance queries up to radius. A radius of
// zero (or an empty set) yields an index whose queries always miss.
func NewPointIndex(pts []points.Point, radius float64) *PointIndex {
	if radius <= 0 {
		radius = 1
	}
	idx := &PointIndex{
		cellSize: radius,
		buckets:  make(map[bucketKey][]points.Point, len(pts)),
	}
	for _, p := range pts {
		k := idx.key(p.X, p.Y)
		idx.buckets[k] = append(idx.buckets[k], p)
	}
	return idx
}

func (idx *PointIndex) key(x, y float64) bucketKey {
	return bucketKey{
		col: int(math.Floor(x / idx.cellSize)),
		row: int(math.Floor(y / idx.cellSize)),
	}
}

// Within reports whether any indexed point lies within radius of (x, y).
// radius must not exceed the radius the index was built with.
func (idx *PointIndex) Within(x, y, radius float64) bool {
	if len(idx.buckets) == 0 || radius <= 0 {
		return false
	}
	r2 := radius * radius
	center := idx.key(x, y)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			k := bucketKey{col: center.col + dc, row: center.row + dr}
			for _, p := range idx.buckets[k] {
				dx, dy := p.X-x, p.Y-y
				if dx*dx+dy*dy <= r2 {
					return true
				}
			}
		}
	}
	return false
}

// Package vector holds ecoregion polygons and the spatial predicates over them.
package vector

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Ecoregion is a closed boundary with an identifying name. A set of
// ecoregions is assumed (not enforced) to be a non-overlapping coverage
// of the study area.
type Ecoregion struct {
	Name string
	Geom *geom.MultiPolygon
}

// Contains reports whether (x, y) falls inside the region, by even-odd
// ray casting over every ring of the multipolygon. Counting parity across
// all rings handles holes without caring which polygon owns them.
func (e *Ecoregion) Contains(x, y float64) bool {
	inside := false
	for pi := 0; pi < e.Geom.NumPolygons(); pi++ {
		poly := e.Geom.Polygon(pi)
		for ri := 0; ri < poly.NumLinearRings(); ri++ {
			if rayCrossesRing(x, y, poly.LinearRing(ri)) {
				inside = !inside
			}
		}
	}
	return inside
}

// rayCrossesRing reports whether a ray cast east from (x, y) crosses the
// ring boundary an odd number of times.
func rayCrossesRing(x, y float64, ring *geom.LinearRing) bool {
	coords := ring.FlatCoords()
	stride := ring.Stride()
	n := len(coords) / stride
	if n < 3 {
		return false
	}

	odd := false
	jx, jy := coords[(n-1)*stride], coords[(n-1)*stride+1]
	for i := 0; i < n; i++ {
		ix, iy := coords[i*stride], coords[i*stride+1]
		if (iy > y) != (jy > y) {
			xCross := ix + (y-iy)/(jy-iy)*(jx-ix)
			if x < xCross {
				odd = !odd
			}
		}
		jx, jy = ix, iy
	}
	return odd
}

// Area returns the region's area in squared map units. Ring orientation
// from the source shapefile determines hole subtraction.
func (e *Ecoregion) Area() float64 {
	var total float64
	for pi := 0; pi < e.Geom.NumPolygons(); pi++ {
		poly := e.Geom.Polygon(pi)
		for ri := 0; ri < poly.NumLinearRings(); ri++ {
			a := signedRingArea(poly.LinearRing(ri))
			if ri == 0 {
				total += math.Abs(a)
			} else {
				total -= math.Abs(a)
			}
		}
	}
	return math.Abs(total)
}

// signedRingArea computes the shoelace area of a ring; sign encodes winding.
func signedRingArea(ring *geom.LinearRing) float64 {
	coords := ring.FlatCoords()
	stride := ring.Stride()
	n := len(coords) / stride
	if n < 3 {
		return 0
	}

	var sum float64
	jx, jy := coords[(n-1)*stride], coords[(n-1)*stride+1]
	for i := 0; i < n; i++ {
		ix, iy := coords[i*stride], coords[i*stride+1]
		sum += jx*iy - ix*jy
		jx, jy = ix, iy
	}
	return sum / 2
}

// Bounds returns the region's bounding box.
func (e *Ecoregion) Bounds() *geom.Bounds {
	return e.Geom.Bounds()
}

// Package points holds the occurrence and sample point model plus its CSV form.
package points

import (
	"github.com/rotisserie/eris"
)

// Class tags the origin of a point set.
type Class string

const (
	// Presence marks confirmed occurrence records.
	Presence Class = "presence"
	// Background marks points characterizing available environment.
	Background Class = "background"
	// PseudoAbsence marks sampled stand-ins for true absences.
	PseudoAbsence Class = "pseudoabsence"
)

// ParseClass validates a class name.
func ParseClass(s string) (Class, error) {
	switch Class(s) {
	case Presence, Background, PseudoAbsence:
		return Class(s), nil
	}
	return "", eris.Errorf("points: unknown class %q", s)
}

// Point is an immutable (x, y) coordinate pair in the study's reference system.
type Point struct {
	X float64
	Y float64
}

// Set is an ordered sequence of points for one species.
// Seed records the RNG seed for sampled sets; zero for observed data.
type Set struct {
	Species string
	Class   Class
	Seed    int64
	Points  []Point
}

// Len returns the number of points in the set.
func (s *Set) Len() int { return len(s.Points) }

package scan

import "github.com/banshee-data/invader.radar/internal/grid"

// Invader is a known pattern together with its covered area, the number of
// set cells used as the match denominator.
type Invader struct {
	pattern     grid.Grid
	coveredArea int
}

// NewInvader wraps pattern and counts its set cells once.
func NewInvader(pattern grid.Grid) Invader {
	return Invader{pattern: pattern, coveredArea: pattern.Count()}
}

// Pattern returns the invader's bitmap.
func (inv Invader) Pattern() grid.Grid { return inv.pattern }

// Dimensions returns the pattern's (rows, cols).
func (inv Invader) Dimensions() (int, int) { return inv.pattern.Dimensions() }

// CoveredArea returns the number of set cells in the pattern.
func (inv Invader) CoveredArea() int { return inv.coveredArea }

package scan

import (
	"fmt"

	"github.com/banshee-data/invader.radar/internal/grid"
)

// MatchProbability returns the fraction of the invader's set cells that are
// also set in region. region must have the invader's dimensions. An invader
// with a covered area of zero yields 0.
func MatchProbability(inv Invader, region grid.Grid) (float64, error) {
	ir, ic := inv.Dimensions()
	rr, rc := region.Dimensions()
	if ir != rr || ic != rc {
		return 0, fmt.Errorf("%w: invader %dx%d, region %dx%d", ErrDimensionMismatch, ir, ic, rr, rc)
	}
	if inv.coveredArea == 0 {
		return 0, nil
	}
	matched, err := inv.pattern.Overlap(region)
	if err != nil {
		return 0, err
	}
	return float64(matched) / float64(inv.coveredArea), nil
}

// IsMatch reports whether MatchProbability reaches threshold. The comparison
// is inclusive.
func IsMatch(inv Invader, region grid.Grid, threshold float64) (bool, error) {
	p, err := MatchProbability(inv, region)
	if err != nil {
		return false, err
	}
	return p >= threshold, nil
}

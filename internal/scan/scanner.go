package scan

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/invader.radar/internal/grid"
)

// Detection records that invader InvaderIndex was found with its top-left
// corner at Position in the radar grid.
type Detection struct {
	Position     grid.Position `json:"position"`
	InvaderIndex int           `json:"invader_index"`
	Probability  float64       `json:"probability"`
}

// Scanner slides known invaders over a radar grid. The radar grid is only
// read, so one Scanner may be shared by concurrent workers.
type Scanner struct {
	Radar     grid.Grid
	Invaders  []Invader
	Threshold float64
	// Workers bounds the number of rows tested concurrently across all
	// invaders. Values below 2 scan sequentially.
	Workers int
}

// testHookRow, when set, wraps each row job of a parallel ScanAll.
var testHookRow func(run func() error) error

// ScanForInvader returns every detection of invader index, ordered by row
// then column.
func (s *Scanner) ScanForInvader(ctx context.Context, index int) ([]Detection, error) {
	inv, rowSpan, colSpan, err := s.placements(index)
	if err != nil || rowSpan == 0 {
		return nil, err
	}

	if s.Workers < 2 {
		var out []Detection
		for r := 0; r < rowSpan; r++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			found, err := s.scanRow(inv, index, r, colSpan)
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
		}
		return out, nil
	}

	// One slot per row keeps the output in row-major order regardless of
	// which worker finishes first.
	slots := make([][]Detection, rowSpan)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for r := 0; r < rowSpan; r++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found, err := s.scanRow(inv, index, r, colSpan)
			if err != nil {
				return err
			}
			slots[r] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flatten(slots), nil
}

// placements validates invader index and returns it with the number of top
// left rows and columns to test. Both spans exclude the final placement flush
// with the bottom and right edges; either span is 0 when nothing is tested.
func (s *Scanner) placements(index int) (Invader, int, int, error) {
	if s.Radar.IsZero() {
		return Invader{}, 0, 0, ErrNoRadar
	}
	if index < 0 || index >= len(s.Invaders) {
		return Invader{}, 0, 0, fmt.Errorf("%w: %d of %d", ErrUnknownInvader, index, len(s.Invaders))
	}
	inv := s.Invaders[index]
	if inv.pattern.IsZero() {
		return Invader{}, 0, 0, fmt.Errorf("invader %d: %w", index, grid.ErrBadShape)
	}

	mapRows, mapCols := s.Radar.Dimensions()
	invRows, invCols := inv.Dimensions()
	rowSpan := mapRows - invRows
	colSpan := mapCols - invCols
	if rowSpan <= 0 || colSpan <= 0 {
		return inv, 0, 0, nil
	}
	return inv, rowSpan, colSpan, nil
}

// ScanAll scans every invader in registration order and concatenates the
// results in that order.
func (s *Scanner) ScanAll(ctx context.Context) ([]Detection, error) {
	if s.Radar.IsZero() {
		return nil, ErrNoRadar
	}

	slots := make([][]Detection, len(s.Invaders))
	if s.Workers < 2 {
		for i := range s.Invaders {
			found, err := s.ScanForInvader(ctx, i)
			if err != nil {
				return nil, err
			}
			slots[i] = found
		}
		return flatten(slots), nil
	}

	// All invaders share one worker limit. Each invader gets one slot per row
	// so the result keeps invader-major, row-major order.
	rowSlots := make([][][]Detection, len(s.Invaders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for i := range s.Invaders {
		inv, rowSpan, colSpan, err := s.placements(i)
		if err != nil {
			_ = g.Wait()
			return nil, err
		}
		rowSlots[i] = make([][]Detection, rowSpan)
		for r := 0; r < rowSpan; r++ {
			job := func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				found, err := s.scanRow(inv, i, r, colSpan)
				if err != nil {
					return fmt.Errorf("invader %d: %w", i, err)
				}
				rowSlots[i][r] = found
				return nil
			}
			if hook := testHookRow; hook != nil {
				g.Go(func() error { return hook(job) })
			} else {
				g.Go(job)
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, rows := range rowSlots {
		slots[i] = flatten(rows)
	}
	return flatten(slots), nil
}

func (s *Scanner) scanRow(inv Invader, index, row, colSpan int) ([]Detection, error) {
	invRows, invCols := inv.Dimensions()
	var out []Detection
	for c := 0; c < colSpan; c++ {
		pos := grid.Position{Row: row, Col: c}
		region, err := s.Radar.Slice(pos, invRows, invCols)
		if err != nil {
			return nil, err
		}
		p, err := MatchProbability(inv, region)
		if err != nil {
			return nil, err
		}
		if p >= s.Threshold {
			out = append(out, Detection{Position: pos, InvaderIndex: index, Probability: p})
		}
	}
	return out, nil
}

func flatten(slots [][]Detection) []Detection {
	n := 0
	for _, s := range slots {
		n += len(s)
	}
	if n == 0 {
		return nil
	}
	out := make([]Detection, 0, n)
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}

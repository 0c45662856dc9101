package scan

import (
	"fmt"

	"github.com/banshee-data/invader.radar/internal/grid"
)

// Composite stamps each detected invader's full pattern onto a cleared
// rows x cols grid, in the order given. Overlapping detections are not
// merged: the later one wins, zero cells included.
func Composite(rows, cols int, invaders []Invader, detections []Detection) (grid.Grid, error) {
	canvas, err := grid.NewCanvas(rows, cols)
	if err != nil {
		return grid.Grid{}, err
	}
	for i, d := range detections {
		if d.InvaderIndex < 0 || d.InvaderIndex >= len(invaders) {
			return grid.Grid{}, fmt.Errorf("detection %d: %w: %d", i, ErrUnknownInvader, d.InvaderIndex)
		}
		if err := canvas.Stamp(d.Position, invaders[d.InvaderIndex].pattern); err != nil {
			return grid.Grid{}, fmt.Errorf("detection %d: %w", i, err)
		}
	}
	return canvas.Grid(), nil
}

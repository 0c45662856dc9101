package grid

import "fmt"

// Canvas is a mutable bitmap that patterns are stamped onto. It is not safe
// for concurrent use.
type Canvas struct {
	rows  int
	cols  int
	cells []uint8
}

// NewCanvas returns a cleared rows x cols canvas.
func NewCanvas(rows, cols int) (*Canvas, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadShape, rows, cols)
	}
	return &Canvas{rows: rows, cols: cols, cells: make([]uint8, rows*cols)}, nil
}

// Stamp copies every cell of pattern onto the canvas with its top-left corner
// at p, overwriting what was there, zeros included.
func (c *Canvas) Stamp(p Position, pattern Grid) error {
	if p.Row < 0 || p.Col < 0 || p.Row+pattern.rows > c.rows || p.Col+pattern.cols > c.cols {
		return fmt.Errorf("%w: %dx%d at %s on %dx%d canvas", ErrOutOfBounds, pattern.rows, pattern.cols, p, c.rows, c.cols)
	}
	for r := 0; r < pattern.rows; r++ {
		dst := (p.Row+r)*c.cols + p.Col
		copy(c.cells[dst:dst+pattern.cols], pattern.cells[r*pattern.cols:(r+1)*pattern.cols])
	}
	return nil
}

// Grid freezes the current canvas contents into an independent Grid.
func (c *Canvas) Grid() Grid {
	return Grid{rows: c.rows, cols: c.cols, cells: append([]uint8(nil), c.cells...)}
}

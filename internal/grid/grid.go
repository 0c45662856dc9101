package grid

import (
	"fmt"
	"math/bits"
)

// Position is the top-left corner of a region within a larger grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Grid is a row-major rows x cols bitmap of 0/1 cells.
type Grid struct {
	rows  int
	cols  int
	cells []uint8
}

// New builds a Grid from row slices. All rows must have the same, non-zero
// length and every cell must be 0 or 1. The input is copied.
func New(rows [][]uint8) (Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Grid{}, fmt.Errorf("%w: %d rows", ErrBadShape, len(rows))
	}
	cols := len(rows[0])
	cells := make([]uint8, 0, len(rows)*cols)
	for r, row := range rows {
		if len(row) != cols {
			return Grid{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadShape, r, len(row), cols)
		}
		for c, v := range row {
			if v > 1 {
				return Grid{}, fmt.Errorf("%w: got %d at (%d,%d)", ErrBadCell, v, r, c)
			}
		}
		cells = append(cells, row...)
	}
	return Grid{rows: len(rows), cols: cols, cells: cells}, nil
}

// Zeros returns a rows x cols grid with every cell cleared.
func Zeros(rows, cols int) (Grid, error) {
	if rows < 1 || cols < 1 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrBadShape, rows, cols)
	}
	return Grid{rows: rows, cols: cols, cells: make([]uint8, rows*cols)}, nil
}

// Dimensions returns (rows, cols).
func (g Grid) Dimensions() (int, int) {
	return g.rows, g.cols
}

// IsZero reports whether g is the zero value rather than a constructed grid.
func (g Grid) IsZero() bool {
	return g.rows == 0
}

// At returns the cell at (row, col).
func (g Grid) At(row, col int) (uint8, error) {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return 0, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, row, col, g.rows, g.cols)
	}
	return g.cells[row*g.cols+col], nil
}

// Slice copies the height x width rectangle whose top-left corner is p.
func (g Grid) Slice(p Position, height, width int) (Grid, error) {
	if height < 1 || width < 1 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrBadShape, height, width)
	}
	if p.Row < 0 || p.Col < 0 || p.Row+height > g.rows || p.Col+width > g.cols {
		return Grid{}, fmt.Errorf("%w: %dx%d at %s in %dx%d", ErrOutOfBounds, height, width, p, g.rows, g.cols)
	}
	cells := make([]uint8, height*width)
	for r := 0; r < height; r++ {
		src := (p.Row+r)*g.cols + p.Col
		copy(cells[r*width:(r+1)*width], g.cells[src:src+width])
	}
	return Grid{rows: height, cols: width, cells: cells}, nil
}

// Count returns the number of set cells.
func (g Grid) Count() int {
	n := 0
	for _, v := range g.cells {
		n += int(v)
	}
	return n
}

// Overlap returns the number of cells set in both g and other. Both grids
// must have the same dimensions.
func (g Grid) Overlap(other Grid) (int, error) {
	if g.rows != other.rows || g.cols != other.cols {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrBadShape, g.rows, g.cols, other.rows, other.cols)
	}
	n := 0
	for i, v := range g.cells {
		n += bits.OnesCount8(v & other.cells[i])
	}
	return n, nil
}

// Equal reports whether both grids have the same shape and cells.
func (g Grid) Equal(other Grid) bool {
	if g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for i, v := range g.cells {
		if other.cells[i] != v {
			return false
		}
	}
	return true
}

// Rows returns a copy of the cells as row slices.
func (g Grid) Rows() [][]uint8 {
	out := make([][]uint8, g.rows)
	for r := range out {
		out[r] = append([]uint8(nil), g.cells[r*g.cols:(r+1)*g.cols]...)
	}
	return out
}

// Each calls fn for every cell in row-major order.
func (g Grid) Each(fn func(row, col int, v uint8)) {
	for i, v := range g.cells {
		fn(i/g.cols, i%g.cols, v)
	}
}

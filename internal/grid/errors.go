package grid

import "errors"

var (
	// ErrOutOfBounds is returned when a cell index or a slice rectangle falls
	// outside the grid extent.
	ErrOutOfBounds = errors.New("grid: index out of range")

	// ErrBadShape is returned for non-positive dimensions or ragged rows.
	ErrBadShape = errors.New("grid: invalid shape")

	// ErrBadCell is returned when a cell value is neither 0 nor 1.
	ErrBadCell = errors.New("grid: cell must be 0 or 1")
)

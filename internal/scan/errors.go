package scan

import "errors"

var (
	// ErrInvalidConfiguration is returned for an accuracy threshold outside
	// the open interval (0, 1).
	ErrInvalidConfiguration = errors.New("scan: invalid configuration")

	// ErrDimensionMismatch is returned when an invader is compared against a
	// region of a different shape.
	ErrDimensionMismatch = errors.New("scan: dimension mismatch")

	// ErrNoRadar is returned when a scan is requested before a radar grid
	// has been set.
	ErrNoRadar = errors.New("scan: radar grid not set")

	// ErrUnknownInvader is returned for an invader index that was never
	// registered.
	ErrUnknownInvader = errors.New("scan: unknown invader index")
)

// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"testing"

	"github.com/banshee-data/invader.radar/internal/grid"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// MustGrid builds a grid from text rows, mapping '-' to 0 and any other
// character to 1, the same convention as the sample files.
func MustGrid(t testing.TB, rows ...string) grid.Grid {
	t.Helper()
	cells := make([][]uint8, len(rows))
	for r, line := range rows {
		cells[r] = make([]uint8, 0, len(line))
		for _, ch := range line {
			if ch == '-' {
				cells[r] = append(cells[r], 0)
			} else {
				cells[r] = append(cells[r], 1)
			}
		}
	}
	g, err := grid.New(cells)
	if err != nil {
		t.Fatalf("MustGrid(%q): %v", rows, err)
	}
	return g
}

// MustZeros builds a cleared rows x cols grid.
func MustZeros(t testing.TB, rows, cols int) grid.Grid {
	t.Helper()
	g, err := grid.Zeros(rows, cols)
	if err != nil {
		t.Fatalf("MustZeros(%d, %d): %v", rows, cols, err)
	}
	return g
}

// Package grid provides the binary bitmap value type shared by the scanner,
// the sample parser and the reports.
//
// A Grid is immutable once constructed. Every extraction (Slice, Rows) returns
// an independent copy, so no two grids ever alias the same cells. The only
// mutable surface is Canvas, which the compositor uses to stamp patterns and
// then freezes into a Grid.
package grid

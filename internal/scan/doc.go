// Package scan locates known invader patterns inside a radar grid.
//
// The match metric is asymmetric: the probability that an invader sits at a
// position is the fraction of the invader's set cells that are also set in
// the radar window. Extra ink in the window is tolerated, missing ink is not.
// An invader with no set cells never matches.
//
// Scanning is a full sliding-window correlation. Candidate top-left positions
// run over [0, radarRows-invaderRows) x [0, radarCols-invaderCols), which
// leaves out placements flush with the bottom and right edges. Detections are
// ordered invader-major, then row-major, then column-major, whatever the
// worker count, and the compositor stamps them in that order so a later
// detection overwrites an earlier overlapping one.
package scan

package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/invader.radar/internal/grid"
	"github.com/banshee-data/invader.radar/internal/monitoring"
)

// Engine owns one run's threshold, known invaders, radar grid and the
// detections of the latest scan. It is not safe for concurrent use; the
// parallelism lives inside Scan.
type Engine struct {
	threshold  float64
	workers    int
	invaders   []Invader
	radar      grid.Grid
	detections []Detection
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the scan parallelism. n < 1 is treated as 1.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// NewEngine returns an Engine matching at the given accuracy threshold,
// which must lie strictly between 0 and 1.
func NewEngine(threshold float64, opts ...Option) (*Engine, error) {
	if !(threshold > 0 && threshold < 1) {
		return nil, fmt.Errorf("%w: accuracy threshold %v outside (0, 1)", ErrInvalidConfiguration, threshold)
	}
	e := &Engine{threshold: threshold, workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Threshold returns the accuracy threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// AddKnownInvader registers pattern and returns its invader index.
func (e *Engine) AddKnownInvader(pattern grid.Grid) int {
	e.invaders = append(e.invaders, NewInvader(pattern))
	return len(e.invaders) - 1
}

// SetRadarGrid replaces the grid to scan.
func (e *Engine) SetRadarGrid(radar grid.Grid) {
	e.radar = radar
}

// RadarGrid returns the current radar grid.
func (e *Engine) RadarGrid() grid.Grid { return e.radar }

// Invaders returns the registered invaders in index order.
func (e *Engine) Invaders() []Invader {
	return append([]Invader(nil), e.invaders...)
}

// Detections returns the detections of the latest successful scan.
func (e *Engine) Detections() []Detection {
	return append([]Detection(nil), e.detections...)
}

func (e *Engine) scanner() *Scanner {
	return &Scanner{
		Radar:     e.radar,
		Invaders:  e.invaders,
		Threshold: e.threshold,
		Workers:   e.workers,
	}
}

// ScanForInvader scans for a single registered invader without touching the
// stored detections.
func (e *Engine) ScanForInvader(ctx context.Context, index int) ([]Detection, error) {
	return e.scanner().ScanForInvader(ctx, index)
}

// Scan runs every invader against the radar grid and replaces the stored
// detections. On error the previous detections are kept.
func (e *Engine) Scan(ctx context.Context) ([]Detection, error) {
	rows, cols := e.radar.Dimensions()
	ctx, span := startScanSpan(ctx, rows, cols, len(e.invaders), e.threshold)
	start := time.Now()

	found, err := e.scanner().ScanAll(ctx)
	if err != nil {
		endScanSpan(span, 0, err)
		recordScanMetrics(ctx, time.Since(start), nil, err)
		return nil, err
	}

	counts := make([]int, len(e.invaders))
	for _, d := range found {
		counts[d.InvaderIndex]++
	}
	for i, n := range counts {
		monitoring.Logf("invader %d: %d detections", i, n)
	}
	elapsed := time.Since(start)
	monitoring.Logf("scanned %dx%d radar for %d invaders at %.2f: %d detections in %v",
		rows, cols, len(e.invaders), e.threshold, len(found), elapsed)
	endScanSpan(span, len(found), nil)
	recordScanMetrics(ctx, elapsed, counts, nil)

	e.detections = found
	return e.Detections(), nil
}

// OutputGrid composites the stored detections onto a grid the size of the
// radar grid.
func (e *Engine) OutputGrid() (grid.Grid, error) {
	if e.radar.IsZero() {
		return grid.Grid{}, ErrNoRadar
	}
	rows, cols := e.radar.Dimensions()
	return Composite(rows, cols, e.invaders, e.detections)
}

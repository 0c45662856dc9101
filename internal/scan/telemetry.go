package scan

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("invader.radar/scan")
	meter  = otel.Meter("invader.radar/scan")
)

var (
	scanDuration    metric.Float64Histogram
	scanTotal       metric.Int64Counter
	detectionsTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments once. Safe to call repeatedly.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error
		scanDuration, err = meter.Float64Histogram(
			"scan_duration_seconds",
			metric.WithDescription("Duration of full radar scans"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
		scanTotal, err = meter.Int64Counter(
			"scan_runs_total",
			metric.WithDescription("Number of radar scans"),
		)
		if err != nil {
			metricsErr = err
			return
		}
		detectionsTotal, err = meter.Int64Counter(
			"scan_detections_total",
			metric.WithDescription("Detections found, by invader index"),
		)
		metricsErr = err
	})
	return metricsErr
}

func startScanSpan(ctx context.Context, rows, cols, invaders int, threshold float64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Scan",
		trace.WithAttributes(
			attribute.Int("radar.rows", rows),
			attribute.Int("radar.cols", cols),
			attribute.Int("scan.invaders", invaders),
			attribute.Float64("scan.threshold", threshold),
		),
	)
}

func endScanSpan(span trace.Span, detections int, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("scan.detections", detections))
	}
	span.End()
}

func recordScanMetrics(ctx context.Context, duration time.Duration, counts []int, err error) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	scanDuration.Record(ctx, duration.Seconds(), attrs)
	scanTotal.Add(ctx, 1, attrs)
	for i, n := range counts {
		if n > 0 {
			detectionsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.Int("invader", i)))
		}
	}
}

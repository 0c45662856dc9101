package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/invader.radar/internal/config"
	"github.com/banshee-data/invader.radar/internal/db"
	"github.com/banshee-data/invader.radar/internal/fsutil"
	"github.com/banshee-data/invader.radar/internal/grid"
	"github.com/banshee-data/invader.radar/internal/monitoring"
	"github.com/banshee-data/invader.radar/internal/report"
	"github.com/banshee-data/invader.radar/internal/sample"
	"github.com/banshee-data/invader.radar/internal/scan"
	"github.com/banshee-data/invader.radar/internal/security"
	"github.com/banshee-data/invader.radar/internal/timeutil"
)

// HistoryRecorder stores a completed run. *db.DB satisfies it.
type HistoryRecorder interface {
	RecordRun(run db.ScanRun, detections []scan.Detection) error
}

// Runner performs one scan of a sample file.
type Runner struct {
	FS        fsutil.FileSystem
	Clock     timeutil.Clock
	Config    *config.ScanConfig
	InputPath string

	// History is optional; nil disables recording.
	History HistoryRecorder
	// Stdout receives the per-invader summary table; nil discards it.
	Stdout io.Writer
	// NewRunID defaults to uuid.NewString.
	NewRunID func() string
}

// RunResult describes a completed scan.
type RunResult struct {
	RunID      string
	Detections []scan.Detection
	Summaries  []report.InvaderSummary
	OutputPath string
	CleanedMap string
	StartedAt  time.Time
	Duration   time.Duration
}

func (r *Runner) defaults() {
	if r.FS == nil {
		r.FS = fsutil.OSFileSystem{}
	}
	if r.Clock == nil {
		r.Clock = timeutil.RealClock{}
	}
	if r.Config == nil {
		r.Config = config.DefaultScanConfig()
	}
	if r.Stdout == nil {
		r.Stdout = io.Discard
	}
	if r.NewRunID == nil {
		r.NewRunID = uuid.NewString
	}
}

// Run loads the sample, scans it, writes the cleaned map next to the input
// and produces whichever optional outputs the config enables.
func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	r.defaults()
	if err := r.Config.Validate(); err != nil {
		return RunResult{}, err
	}

	outputPath := sample.OutputPath(r.InputPath, r.Config.GetOutputName())
	if samePath(outputPath, r.InputPath) {
		return RunResult{}, fmt.Errorf("%w: output name %q would overwrite input %s",
			scan.ErrInvalidConfiguration, r.Config.GetOutputName(), r.InputPath)
	}

	res := RunResult{RunID: r.NewRunID(), StartedAt: r.Clock.Now()}
	logf := monitoring.Prefixed(fmt.Sprintf("[run %.8s] ", res.RunID))

	src, err := sample.LoadFile(r.FS, r.InputPath)
	if err != nil {
		return RunResult{}, err
	}

	engine, err := scan.NewEngine(r.Config.Threshold(), scan.WithWorkers(r.Config.GetWorkers()))
	if err != nil {
		return RunResult{}, err
	}
	for _, g := range src.KnownInvaderGrids() {
		engine.AddKnownInvader(g)
	}
	engine.SetRadarGrid(src.RadarGrid())
	radarRows, radarCols := src.RadarGrid().Dimensions()
	logf("loaded %s: %d known invaders, %dx%d radar", r.InputPath, len(src.KnownInvaderGrids()), radarRows, radarCols)

	scanCtx := ctx
	if timeout := r.Config.GetScanTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if res.Detections, err = engine.Scan(scanCtx); err != nil {
		return RunResult{}, fmt.Errorf("scan %s: %w", r.InputPath, err)
	}

	output, err := engine.OutputGrid()
	if err != nil {
		return RunResult{}, err
	}
	res.CleanedMap = sample.Render(output)
	res.OutputPath = outputPath
	inputDir := filepath.Dir(r.InputPath)
	if err := security.ValidatePathWithinDirectory(res.OutputPath, inputDir); err != nil {
		return RunResult{}, fmt.Errorf("refusing to write cleaned map: %w", err)
	}
	if err := sample.Write(r.FS, res.OutputPath, res.CleanedMap); err != nil {
		return RunResult{}, fmt.Errorf("write cleaned map: %w", err)
	}
	logf("wrote cleaned map to %s", res.OutputPath)

	res.Summaries = report.Summarize(len(engine.Invaders()), res.Detections)
	if err := r.writeReports(src.RadarGrid(), output, res.Detections, inputDir); err != nil {
		return RunResult{}, err
	}
	res.Duration = r.Clock.Since(res.StartedAt)

	if r.History != nil {
		run := db.ScanRun{
			RunID:        res.RunID,
			SourcePath:   r.InputPath,
			Accuracy:     r.Config.GetAccuracy(),
			RadarRows:    radarRows,
			RadarCols:    radarCols,
			InvaderCount: len(engine.Invaders()),
			RadarMap:     sample.Render(src.RadarGrid()),
			CleanedMap:   res.CleanedMap,
			StartedAt:    res.StartedAt,
			Duration:     res.Duration,
		}
		if err := r.History.RecordRun(run, res.Detections); err != nil {
			return RunResult{}, fmt.Errorf("record history: %w", err)
		}
	}

	if err := report.WriteSummary(r.Stdout, res.Summaries); err != nil {
		return RunResult{}, err
	}
	logf("done: %d detections in %v", len(res.Detections), res.Duration)
	return res, nil
}

// reportDirs are the directories report files may be written to.
func reportDirs(inputDir string) []string {
	dirs := []string{inputDir}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	return dirs
}

func (r *Runner) writeReports(radar, output grid.Grid, detections []scan.Detection, inputDir string) error {
	if path := r.Config.GetReportHTML(); path != "" {
		if err := security.ValidatePathWithinAllowedDirs(path, reportDirs(inputDir)); err != nil {
			return fmt.Errorf("refusing to write html report: %w", err)
		}
		f, err := r.FS.Create(path)
		if err != nil {
			return fmt.Errorf("create html report: %w", err)
		}
		if err := report.RenderHTML(f, radar, output, detections); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close html report: %w", err)
		}
	}

	if path := r.Config.GetReportPNG(); path != "" {
		if err := security.ValidatePathWithinAllowedDirs(path, reportDirs(inputDir)); err != nil {
			return fmt.Errorf("refusing to write png report: %w", err)
		}
		if err := report.SavePNG(r.FS, path, output, detections); err != nil {
			return err
		}
	}
	return nil
}

// samePath reports whether a and b name the same file once cleaned and made
// absolute.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

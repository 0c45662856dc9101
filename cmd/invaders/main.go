// Command invaders scans a radar sample for known space invaders and writes
// a cleaned map that keeps only the detected invaders.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/invader.radar/internal/api"
	"github.com/banshee-data/invader.radar/internal/config"
	"github.com/banshee-data/invader.radar/internal/db"
	"github.com/banshee-data/invader.radar/internal/fsutil"
	"github.com/banshee-data/invader.radar/internal/telemetry"
	"github.com/banshee-data/invader.radar/internal/version"
	"github.com/banshee-data/invader.radar/internal/watch"
)

// options holds the parsed command line.
type options struct {
	accuracy   int
	filePath   string
	configPath string
	workers    int
	outputName string
	historyDB  string
	reportHTML string
	reportPNG  string
	serve      string
	watch      bool
	version    bool

	traceExporter  string
	metricExporter string

	// set records which flags appeared on the command line.
	set map[string]bool
}

func newFlagSet(o *options) *flag.FlagSet {
	fs := flag.NewFlagSet("invaders", flag.ContinueOnError)
	fs.IntVar(&o.accuracy, "accuracy", config.DefaultAccuracy, "Match accuracy in percent (0-100)")
	fs.StringVar(&o.filePath, "file-path", "README.md", "Sample file holding the known invaders and the radar grid")
	fs.StringVar(&o.configPath, "config", "", "Optional JSON or YAML scan configuration")
	fs.IntVar(&o.workers, "workers", config.DefaultWorkers, "Number of concurrent scan workers")
	fs.StringVar(&o.outputName, "output-name", config.DefaultOutputName, "Base name of the cleaned map written next to the input")
	fs.StringVar(&o.historyDB, "db", "", "SQLite scan history database (empty disables history)")
	fs.StringVar(&o.reportHTML, "report-html", "", "Write an HTML chart of the scan to this path")
	fs.StringVar(&o.reportPNG, "report-png", "", "Write a PNG plot of the cleaned map to this path")
	fs.StringVar(&o.serve, "serve", "", "After scanning, serve the history API on this address until interrupted")
	fs.BoolVar(&o.watch, "watch", false, "Rescan whenever the sample file changes, until interrupted")
	fs.StringVar(&o.traceExporter, "trace-exporter", telemetry.ExporterNone, "Span exporter: none or stdout")
	fs.StringVar(&o.metricExporter, "metric-exporter", telemetry.ExporterNone, "Metric exporter: none, stdout or prometheus (served on /metrics with -serve)")
	fs.BoolVar(&o.version, "version", false, "Print version information and exit")
	return fs
}

func parseOptions(args []string) (*options, error) {
	o := &options{set: map[string]bool{}}
	fs := newFlagSet(o)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// scanConfig merges the optional config file with flags. Flags given on the
// command line win over file values; file values win over flag defaults.
func (o *options) scanConfig(fsys fsutil.FileSystem) (*config.ScanConfig, error) {
	cfg := &config.ScanConfig{}
	if o.configPath != "" {
		loaded, err := config.LoadScanConfig(fsys, o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	override := func(name string, unset bool) bool { return o.set[name] || unset }
	if override("accuracy", cfg.Accuracy == nil) {
		cfg.Accuracy = &o.accuracy
	}
	if override("workers", cfg.Workers == nil) {
		cfg.Workers = &o.workers
	}
	if override("output-name", cfg.OutputName == nil) {
		cfg.OutputName = &o.outputName
	}
	if override("db", cfg.HistoryDB == nil) {
		cfg.HistoryDB = &o.historyDB
	}
	if override("report-html", cfg.ReportHTML == nil) {
		cfg.ReportHTML = &o.reportHTML
	}
	if override("report-png", cfg.ReportPNG == nil) {
		cfg.ReportPNG = &o.reportPNG
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if opts.version {
		fmt.Println(version.String("invaders"))
		return
	}

	fsys := fsutil.OSFileSystem{}
	cfg, err := opts.scanConfig(fsys)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "invaders",
		ServiceVersion: version.Version,
		TraceExporter:  opts.traceExporter,
		MetricExporter: opts.metricExporter,
		Output:         os.Stderr,
	})
	if err != nil {
		log.Fatalf("Failed to initialise telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown error: %v", err)
		}
	}()

	var history *db.DB
	if path := cfg.GetHistoryDB(); path != "" {
		history, err = db.NewDB(path)
		if err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		defer history.Close()
	}
	if opts.serve != "" && history == nil {
		log.Fatal("-serve requires a history database (-db or history_db)")
	}

	runner := &Runner{
		FS:        fsys,
		Config:    cfg,
		InputPath: opts.filePath,
		Stdout:    os.Stdout,
	}
	if history != nil {
		runner.History = history
	}

	runOnce := func(ctx context.Context) error {
		res, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("run %s: %d detections, cleaned map written to %s\n", res.RunID, len(res.Detections), res.OutputPath)
		return nil
	}
	if err := runOnce(ctx); err != nil {
		log.Fatalf("scan failed: %v", err)
	}

	if opts.serve == "" && !opts.watch {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.watch {
		g.Go(func() error {
			return watch.File(gctx, opts.filePath, watch.DefaultDebounce, runOnce)
		})
	}
	if opts.serve != "" {
		g.Go(func() error {
			return serve(gctx, opts.serve, history, tel.MetricsHandler())
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// serve runs the history API until ctx is cancelled. metrics, when non-nil,
// is mounted at /metrics.
func serve(ctx context.Context, addr string, history *db.DB, metrics http.Handler) error {
	mux := api.NewServer(history).ServeMux()
	if err := history.AttachAdminRoutes(mux); err != nil {
		return err
	}
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	log.Printf("serving scan history on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
	return nil
}

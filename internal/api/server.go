// Package api serves the scan history over HTTP: recorded runs, their
// detections, per-invader summaries and an HTML chart of each run.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/banshee-data/invader.radar/internal/db"
	"github.com/banshee-data/invader.radar/internal/httputil"
	"github.com/banshee-data/invader.radar/internal/monitoring"
	"github.com/banshee-data/invader.radar/internal/report"
	"github.com/banshee-data/invader.radar/internal/sample"
	"github.com/banshee-data/invader.radar/internal/scan"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// RunStore is the read side of the scan history.
type RunStore interface {
	Runs(limit int) ([]db.ScanRun, error)
	Run(id string) (db.ScanRun, error)
	RunDetections(id string) ([]scan.Detection, error)
}

type Server struct {
	store RunStore
}

func NewServer(store RunStore) *Server {
	return &Server{store: store}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// colorLogs is true when stderr is a terminal; piped logs stay plain.
var colorLogs = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		ms := float64(time.Since(start).Nanoseconds()) / 1e6
		if !colorLogs {
			monitoring.Logf("[%d] %s %s %vms", lrw.statusCode, r.Method, r.RequestURI, ms)
			return
		}
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset, ms,
		)
	})
}

// ServeMux returns a mux with the history routes registered.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// Register adds the history routes to an existing mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/runs", getOnly(s.listRuns))
	mux.HandleFunc("/runs/get", getOnly(s.showRun))
	mux.HandleFunc("/runs/detections", getOnly(s.listDetections))
	mux.HandleFunc("/runs/summary", getOnly(s.showSummary))
	mux.HandleFunc("/runs/chart", getOnly(s.showChart))
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w, http.MethodGet)
			return
		}
		h(w, r)
	}
}

// writeStoreError maps store failures to 404 or 500.
func writeStoreError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve %s: %v", what, err))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", db.DefaultRunsLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	runs, err := s.store.Runs(limit)
	if err != nil {
		writeStoreError(w, "runs", err)
		return
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.RequireQuery(r, "run_id")
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	run, err := s.store.Run(id)
	if err != nil {
		writeStoreError(w, "run", err)
		return
	}
	httputil.WriteJSONOK(w, run)
}

func (s *Server) listDetections(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.RequireQuery(r, "run_id")
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	detections, err := s.store.RunDetections(id)
	if err != nil {
		writeStoreError(w, "detections", err)
		return
	}
	httputil.WriteJSONOK(w, detections)
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.RequireQuery(r, "run_id")
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	run, err := s.store.Run(id)
	if err != nil {
		writeStoreError(w, "run", err)
		return
	}
	detections, err := s.store.RunDetections(id)
	if err != nil {
		writeStoreError(w, "detections", err)
		return
	}
	httputil.WriteJSONOK(w, report.Summarize(run.InvaderCount, detections))
}

func (s *Server) showChart(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.RequireQuery(r, "run_id")
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	run, err := s.store.Run(id)
	if err != nil {
		writeStoreError(w, "run", err)
		return
	}
	detections, err := s.store.RunDetections(id)
	if err != nil {
		writeStoreError(w, "detections", err)
		return
	}

	radar, err := sample.ParseGrid(run.RadarMap)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("stored radar map for %s is unreadable: %v", id, err))
		return
	}
	cleaned, err := sample.ParseGrid(run.CleanedMap)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("stored cleaned map for %s is unreadable: %v", id, err))
		return
	}

	var buf bytes.Buffer
	if err := report.RenderHTML(&buf, radar, cleaned, detections); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}

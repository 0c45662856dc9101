package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/invader.radar/internal/db"
	"github.com/banshee-data/invader.radar/internal/grid"
	"github.com/banshee-data/invader.radar/internal/monitoring"
	"github.com/banshee-data/invader.radar/internal/report"
	"github.com/banshee-data/invader.radar/internal/scan"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

// fakeStore is an in-memory RunStore.
type fakeStore struct {
	runs       []db.ScanRun
	detections map[string][]scan.Detection
	err        error
	lastLimit  int
}

func (f *fakeStore) Runs(limit int) ([]db.ScanRun, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeStore) Run(id string) (db.ScanRun, error) {
	if f.err != nil {
		return db.ScanRun{}, f.err
	}
	for _, r := range f.runs {
		if r.RunID == id {
			return r, nil
		}
	}
	return db.ScanRun{}, fmt.Errorf("%w: %s", db.ErrRunNotFound, id)
}

func (f *fakeStore) RunDetections(id string) ([]scan.Detection, error) {
	if _, err := f.Run(id); err != nil {
		return nil, err
	}
	return f.detections[id], nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		runs: []db.ScanRun{
			{
				RunID: "r2", InvaderCount: 2, DetectionCount: 2, RadarRows: 3, RadarCols: 4,
				RadarMap:   "oo--\noo-o\n----\n",
				CleanedMap: "oo--\noo--\n----\n",
			},
			{RunID: "r1", InvaderCount: 1, RadarMap: "o\n", CleanedMap: "-\n"},
		},
		detections: map[string][]scan.Detection{
			"r2": {
				{Position: grid.Position{Row: 0, Col: 0}, InvaderIndex: 0, Probability: 1},
				{Position: grid.Position{Row: 0, Col: 0}, InvaderIndex: 1, Probability: 0.8},
			},
		},
	}
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	LoggingMiddleware(s.ServeMux()).ServeHTTP(w, req)
	return w
}

func TestListRuns(t *testing.T) {
	store := newFakeStore()
	s := NewServer(store)

	w := do(t, s, http.MethodGet, "/runs?limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var runs []db.ScanRun
	if err := json.NewDecoder(w.Body).Decode(&runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "r2" {
		t.Errorf("runs = %+v, want [r2]", runs)
	}
	if store.lastLimit != 1 {
		t.Errorf("limit passed = %d, want 1", store.lastLimit)
	}

	do(t, s, http.MethodGet, "/runs")
	if store.lastLimit != db.DefaultRunsLimit {
		t.Errorf("default limit = %d, want %d", store.lastLimit, db.DefaultRunsLimit)
	}
}

func TestListDetections(t *testing.T) {
	s := NewServer(newFakeStore())

	w := do(t, s, http.MethodGet, "/runs/detections?run_id=r2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got []scan.Detection
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(newFakeStore().detections["r2"], got); diff != "" {
		t.Errorf("detections mismatch (-want +got):\n%s", diff)
	}
}

func TestShowRunAndSummary(t *testing.T) {
	s := NewServer(newFakeStore())

	w := do(t, s, http.MethodGet, "/runs/get?run_id=r1")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = do(t, s, http.MethodGet, "/runs/summary?run_id=r2")
	if w.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body %s", w.Code, w.Body.String())
	}
	var got []report.InvaderSummary
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []report.InvaderSummary{
		{InvaderIndex: 0, Count: 1, MeanProbability: 1, MinProbability: 1, MaxProbability: 1},
		{InvaderIndex: 1, Count: 1, MeanProbability: 0.8, MinProbability: 0.8, MaxProbability: 0.8},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestShowChart(t *testing.T) {
	s := NewServer(newFakeStore())

	w := do(t, s, http.MethodGet, "/runs/chart?run_id=r2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content-type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Radar vs Detected Invaders") {
		t.Error("chart page missing title")
	}
}

func TestErrorsAndMethods(t *testing.T) {
	broken := newFakeStore()
	broken.err = errors.New("disk on fire")

	tests := []struct {
		name   string
		server *Server
		method string
		target string
		status int
	}{
		{"post runs", NewServer(newFakeStore()), http.MethodPost, "/runs", http.StatusMethodNotAllowed},
		{"delete chart", NewServer(newFakeStore()), http.MethodDelete, "/runs/chart?run_id=r2", http.StatusMethodNotAllowed},
		{"bad limit", NewServer(newFakeStore()), http.MethodGet, "/runs?limit=zero", http.StatusBadRequest},
		{"missing run id", NewServer(newFakeStore()), http.MethodGet, "/runs/detections", http.StatusBadRequest},
		{"unknown run", NewServer(newFakeStore()), http.MethodGet, "/runs/detections?run_id=nope", http.StatusNotFound},
		{"unknown run summary", NewServer(newFakeStore()), http.MethodGet, "/runs/summary?run_id=nope", http.StatusNotFound},
		{"unknown run chart", NewServer(newFakeStore()), http.MethodGet, "/runs/chart?run_id=nope", http.StatusNotFound},
		{"store failure", NewServer(broken), http.MethodGet, "/runs", http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, tc.server, tc.method, tc.target)
			if w.Code != tc.status {
				t.Errorf("%s %s status = %d, want %d", tc.method, tc.target, w.Code, tc.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type = %q, want application/json", ct)
			}
		})
	}
}

func TestServerOverSQLite(t *testing.T) {
	store, err := db.NewDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer store.Close()

	run := db.ScanRun{
		RunID: "live", SourcePath: "README.md", Accuracy: 80,
		RadarRows: 2, RadarCols: 2, InvaderCount: 1,
		RadarMap: "oo\noo\n", CleanedMap: "oo\noo\n",
		StartedAt: time.Now(), Duration: time.Millisecond,
	}
	if err := store.RecordRun(run, []scan.Detection{{InvaderIndex: 0, Probability: 1}}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	s := NewServer(store)
	for _, target := range []string{"/runs", "/runs/get?run_id=live", "/runs/detections?run_id=live", "/runs/summary?run_id=live", "/runs/chart?run_id=live"} {
		if w := do(t, s, http.MethodGet, target); w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, body %s", target, w.Code, w.Body.String())
		}
	}
}

func TestStatusCodeColor(t *testing.T) {
	for code, want := range map[int]string{
		200: colorBoldGreen, 302: colorYellow, 404: colorBoldRed, 500: colorBoldRed,
	} {
		if got := statusCodeColor(code); !strings.HasPrefix(got, want) {
			t.Errorf("statusCodeColor(%d) = %q", code, got)
		}
	}
	if got := statusCodeColor(100); got != "100" {
		t.Errorf("statusCodeColor(100) = %q", got)
	}
}

func TestLoggingMiddlewarePlain(t *testing.T) {
	origColor, origLogf := colorLogs, monitoring.Logf
	defer func() { colorLogs, monitoring.Logf = origColor, origLogf }()

	colorLogs = false
	var line string
	monitoring.SetLogger(func(format string, v ...interface{}) { line = fmt.Sprintf(format, v...) })

	do(t, NewServer(newFakeStore()), http.MethodGet, "/runs/get?run_id=missing")
	if !strings.HasPrefix(line, "[404] GET /runs/get?run_id=missing ") {
		t.Errorf("log line = %q", line)
	}
	if strings.Contains(line, "\033[") {
		t.Errorf("plain log line contains escape codes: %q", line)
	}
}

package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/invader.radar/internal/fsutil"
	"github.com/banshee-data/invader.radar/internal/scan"
)

func TestDefaultScanConfig(t *testing.T) {
	cfg := DefaultScanConfig()

	if cfg.Accuracy == nil || *cfg.Accuracy != 80 {
		t.Errorf("Expected Accuracy 80, got %v", cfg.Accuracy)
	}
	if cfg.GetWorkers() != 1 {
		t.Errorf("GetWorkers() = %d, want 1", cfg.GetWorkers())
	}
	if cfg.Threshold() != 0.8 {
		t.Errorf("Threshold() = %v, want 0.8", cfg.Threshold())
	}
	if cfg.GetOutputName() != "cleaned_map" {
		t.Errorf("GetOutputName() = %q, want cleaned_map", cfg.GetOutputName())
	}
	if cfg.GetScanTimeout() != 0 {
		t.Errorf("GetScanTimeout() = %v, want 0", cfg.GetScanTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestEmptyConfigFallsBackToDefaults(t *testing.T) {
	cfg := &ScanConfig{}

	if cfg.GetAccuracy() != DefaultAccuracy {
		t.Errorf("GetAccuracy() = %d, want %d", cfg.GetAccuracy(), DefaultAccuracy)
	}
	if cfg.GetHistoryDB() != "" || cfg.GetReportHTML() != "" || cfg.GetReportPNG() != "" {
		t.Error("optional outputs should be disabled by default")
	}
}

func TestLoadScanConfig(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	testJSON := `{
  "accuracy": 65,
  "workers": 4,
  "scan_timeout": "30s",
  "history_db": "history.db"
}`
	if err := mfs.WriteFile("/etc/scan.json", []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadScanConfig(mfs, "/etc/scan.json")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetAccuracy() != 65 {
		t.Errorf("GetAccuracy() = %d, want 65", cfg.GetAccuracy())
	}
	if cfg.Threshold() != 0.65 {
		t.Errorf("Threshold() = %v, want 0.65", cfg.Threshold())
	}
	if cfg.GetWorkers() != 4 {
		t.Errorf("GetWorkers() = %d, want 4", cfg.GetWorkers())
	}
	if cfg.GetScanTimeout() != 30*time.Second {
		t.Errorf("GetScanTimeout() = %v, want 30s", cfg.GetScanTimeout())
	}
	if cfg.GetHistoryDB() != "history.db" {
		t.Errorf("GetHistoryDB() = %q, want history.db", cfg.GetHistoryDB())
	}
	// Unset fields keep their defaults.
	if cfg.OutputName != nil {
		t.Errorf("OutputName should be nil when omitted, got %v", *cfg.OutputName)
	}
	if cfg.GetOutputName() != DefaultOutputName {
		t.Errorf("GetOutputName() = %q, want default", cfg.GetOutputName())
	}
}

func TestLoadScanConfigYAML(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	testYAML := "accuracy: 70\noutput_name: result\nreport_png: scan.png\n"
	if err := mfs.WriteFile("/etc/scan.yaml", []byte(testYAML), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadScanConfig(mfs, "/etc/scan.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetAccuracy() != 70 {
		t.Errorf("GetAccuracy() = %d, want 70", cfg.GetAccuracy())
	}
	if cfg.GetOutputName() != "result" {
		t.Errorf("GetOutputName() = %q, want result", cfg.GetOutputName())
	}
	if cfg.GetReportPNG() != "scan.png" {
		t.Errorf("GetReportPNG() = %q, want scan.png", cfg.GetReportPNG())
	}
	if cfg.Workers != nil {
		t.Errorf("Workers should be nil when omitted")
	}
}

func TestLoadScanConfigRejects(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	_ = mfs.WriteFile("/cfg/bad.json", []byte(`{"accuracy": 140}`), 0644)
	_ = mfs.WriteFile("/cfg/garbage.json", []byte(`{accuracy`), 0644)
	_ = mfs.WriteFile("/cfg/scan.toml", []byte(`accuracy = 80`), 0644)
	_ = mfs.WriteFile("/cfg/bad.yml", []byte("workers: 0\n"), 0644)
	_ = mfs.WriteFile("/cfg/huge.json", []byte(strings.Repeat(" ", maxConfigSize+1)), 0644)

	tests := []struct {
		path    string
		wantErr error
	}{
		{path: "/cfg/bad.json", wantErr: scan.ErrInvalidConfiguration},
		{path: "/cfg/garbage.json"},
		{path: "/cfg/scan.toml"},
		{path: "/cfg/bad.yml", wantErr: scan.ErrInvalidConfiguration},
		{path: "/cfg/huge.json"},
		{path: "/cfg/missing.json"},
	}
	for _, tc := range tests {
		_, err := LoadScanConfig(mfs, tc.path)
		if err == nil {
			t.Errorf("LoadScanConfig(%s) expected error", tc.path)
			continue
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Errorf("LoadScanConfig(%s) error = %v, want %v", tc.path, err, tc.wantErr)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ScanConfig
		wantErr bool
	}{
		{name: "empty", cfg: ScanConfig{}},
		{name: "accuracy zero is a valid percentage", cfg: ScanConfig{Accuracy: ptrInt(0)}},
		{name: "accuracy negative", cfg: ScanConfig{Accuracy: ptrInt(-1)}, wantErr: true},
		{name: "workers zero", cfg: ScanConfig{Workers: ptrInt(0)}, wantErr: true},
		{name: "bad timeout", cfg: ScanConfig{ScanTimeout: ptrString("soon")}, wantErr: true},
		{name: "negative timeout", cfg: ScanConfig{ScanTimeout: ptrString("-1s")}, wantErr: true},
		{name: "output name with dir", cfg: ScanConfig{OutputName: ptrString("../escape")}, wantErr: true},
		{name: "output name", cfg: ScanConfig{OutputName: ptrString("result")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

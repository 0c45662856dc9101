package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/invader.radar/internal/fsutil"
	"github.com/banshee-data/invader.radar/internal/scan"
)

// Defaults applied by the Get* accessors when a field is unset.
const (
	DefaultAccuracy   = 80
	DefaultWorkers    = 1
	DefaultOutputName = "cleaned_map"
)

const maxConfigSize = 1 * 1024 * 1024 // 1MB

// ScanConfig is the optional JSON or YAML configuration for a scan run. Every field
// is a pointer so that a partial file leaves the rest at their defaults and
// command line flags can tell "unset" from "zero".
type ScanConfig struct {
	// Accuracy is the match threshold as a percentage in [0,100].
	Accuracy *int `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	// Workers bounds scan parallelism.
	Workers *int `json:"workers,omitempty" yaml:"workers,omitempty"`
	// ScanTimeout aborts a scan that runs longer, e.g. "30s". Empty or "0"
	// disables it.
	ScanTimeout *string `json:"scan_timeout,omitempty" yaml:"scan_timeout,omitempty"`

	OutputName *string `json:"output_name,omitempty" yaml:"output_name,omitempty"`
	HistoryDB  *string `json:"history_db,omitempty" yaml:"history_db,omitempty"`
	ReportHTML *string `json:"report_html,omitempty" yaml:"report_html,omitempty"`
	ReportPNG  *string `json:"report_png,omitempty" yaml:"report_png,omitempty"`
}

// Helper functions to create pointers
func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }

// DefaultScanConfig returns a config with every field set to its default.
func DefaultScanConfig() *ScanConfig {
	return &ScanConfig{
		Accuracy:    ptrInt(DefaultAccuracy),
		Workers:     ptrInt(DefaultWorkers),
		ScanTimeout: ptrString(""),
		OutputName:  ptrString(DefaultOutputName),
		HistoryDB:   ptrString(""),
		ReportHTML:  ptrString(""),
		ReportPNG:   ptrString(""),
	}
}

// LoadScanConfig loads a ScanConfig from a JSON or YAML file, chosen by
// extension (.json, .yaml, .yml). The file must be at most 1MB. Fields
// omitted from the file stay nil and fall back to defaults through the
// accessors.
func LoadScanConfig(fsys fsutil.FileSystem, path string) (*ScanConfig, error) {
	cleanPath := filepath.Clean(path)
	var unmarshal func([]byte, any) error
	switch ext := filepath.Ext(cleanPath); ext {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ScanConfig{}
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cleanPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ScanConfig) Validate() error {
	if c.Accuracy != nil && (*c.Accuracy < 0 || *c.Accuracy > 100) {
		return fmt.Errorf("%w: accuracy must be between 0 and 100, got %d", scan.ErrInvalidConfiguration, *c.Accuracy)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", scan.ErrInvalidConfiguration, *c.Workers)
	}
	if c.ScanTimeout != nil && *c.ScanTimeout != "" {
		d, err := time.ParseDuration(*c.ScanTimeout)
		if err != nil {
			return fmt.Errorf("invalid scan_timeout '%s': %w", *c.ScanTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("%w: scan_timeout must not be negative, got %s", scan.ErrInvalidConfiguration, d)
		}
	}
	if c.OutputName != nil && *c.OutputName != filepath.Base(*c.OutputName) {
		return fmt.Errorf("%w: output_name must be a bare file name, got %q", scan.ErrInvalidConfiguration, *c.OutputName)
	}
	return nil
}

// GetAccuracy returns the accuracy percentage or the default.
func (c *ScanConfig) GetAccuracy() int {
	if c.Accuracy == nil {
		return DefaultAccuracy
	}
	return *c.Accuracy
}

// Threshold converts the accuracy percentage to the engine's (0,1) scale.
func (c *ScanConfig) Threshold() float64 {
	return float64(c.GetAccuracy()) / 100
}

// GetWorkers returns the worker count or the default.
func (c *ScanConfig) GetWorkers() int {
	if c.Workers == nil {
		return DefaultWorkers
	}
	return *c.Workers
}

// GetScanTimeout parses the scan timeout. Zero means no timeout.
func (c *ScanConfig) GetScanTimeout() time.Duration {
	if c.ScanTimeout == nil || *c.ScanTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.ScanTimeout)
	if err != nil {
		return 0
	}
	return d
}

// GetOutputName returns the cleaned map base name or the default.
func (c *ScanConfig) GetOutputName() string {
	if c.OutputName == nil || *c.OutputName == "" {
		return DefaultOutputName
	}
	return *c.OutputName
}

// GetHistoryDB returns the history database path; empty disables history.
func (c *ScanConfig) GetHistoryDB() string {
	if c.HistoryDB == nil {
		return ""
	}
	return *c.HistoryDB
}

// GetReportHTML returns the HTML report path; empty disables it.
func (c *ScanConfig) GetReportHTML() string {
	if c.ReportHTML == nil {
		return ""
	}
	return *c.ReportHTML
}

// GetReportPNG returns the PNG report path; empty disables it.
func (c *ScanConfig) GetReportPNG() string {
	if c.ReportPNG == nil {
		return ""
	}
	return *c.ReportPNG
}

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/invader.radar/internal/scan"
)

// ErrRunNotFound is returned when no scan run has the requested id.
var ErrRunNotFound = errors.New("db: scan run not found")

// DefaultRunsLimit caps Runs when the caller passes a non-positive limit.
const DefaultRunsLimit = 50

// ScanRun is one recorded scan. RadarMap and CleanedMap hold the rendered
// text form of the grids.
type ScanRun struct {
	RunID          string        `json:"run_id"`
	SourcePath     string        `json:"source_path"`
	Accuracy       int           `json:"accuracy"`
	RadarRows      int           `json:"radar_rows"`
	RadarCols      int           `json:"radar_cols"`
	InvaderCount   int           `json:"invader_count"`
	DetectionCount int           `json:"detection_count"`
	RadarMap       string        `json:"radar_map"`
	CleanedMap     string        `json:"cleaned_map"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
}

// RecordRun stores run and its detections in one transaction. Detections
// keep their slice order as their sequence number. DetectionCount is taken
// from len(detections).
func (db *DB) RecordRun(run ScanRun, detections []scan.Detection) error {
	if run.RunID == "" {
		return fmt.Errorf("record run: empty run id")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO scan_runs (
			run_id, source_path, accuracy, radar_rows, radar_cols,
			invader_count, detection_count, radar_map, cleaned_map,
			started_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.SourcePath, run.Accuracy, run.RadarRows, run.RadarCols,
		run.InvaderCount, len(detections), run.RadarMap, run.CleanedMap,
		run.StartedAt.UTC().UnixNano(), run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scan_detections (
			run_id, seq, invader_index, row_index, col_index, probability
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("record run %s: prepare detections: %w", run.RunID, err)
	}
	defer stmt.Close()

	for i, d := range detections {
		if _, err := stmt.Exec(run.RunID, i, d.InvaderIndex, d.Position.Row, d.Position.Col, d.Probability); err != nil {
			return fmt.Errorf("record run %s: detection %d: %w", run.RunID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run %s: commit: %w", run.RunID, err)
	}
	logf("recorded run %s with %d detections", run.RunID, len(detections))
	return nil
}

const runColumns = `run_id, source_path, accuracy, radar_rows, radar_cols,
	invader_count, detection_count, radar_map, cleaned_map, started_at, duration_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunRow(row rowScanner) (ScanRun, error) {
	var (
		run        ScanRun
		startedAt  int64
		durationMs int64
	)
	err := row.Scan(
		&run.RunID, &run.SourcePath, &run.Accuracy, &run.RadarRows, &run.RadarCols,
		&run.InvaderCount, &run.DetectionCount, &run.RadarMap, &run.CleanedMap,
		&startedAt, &durationMs,
	)
	if err != nil {
		return ScanRun{}, err
	}
	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return run, nil
}

// Runs returns up to limit runs, newest first.
func (db *DB) Runs(limit int) ([]ScanRun, error) {
	if limit <= 0 {
		limit = DefaultRunsLimit
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM scan_runs
		ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []ScanRun{}
	for rows.Next() {
		run, err := scanRunRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Run returns the run with the given id or ErrRunNotFound.
func (db *DB) Run(id string) (ScanRun, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM scan_runs WHERE run_id = ?`, id)
	run, err := scanRunRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ScanRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return ScanRun{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// RunDetections returns the detections of run id in their recorded order.
func (db *DB) RunDetections(id string) ([]scan.Detection, error) {
	if _, err := db.Run(id); err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT invader_index, row_index, col_index, probability
		FROM scan_detections WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("run %s detections: %w", id, err)
	}
	defer rows.Close()

	detections := []scan.Detection{}
	for rows.Next() {
		var d scan.Detection
		if err := rows.Scan(&d.InvaderIndex, &d.Position.Row, &d.Position.Col, &d.Probability); err != nil {
			return nil, fmt.Errorf("run %s detections: %w", id, err)
		}
		detections = append(detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run %s detections: %w", id, err)
	}
	return detections, nil
}

// DeleteRun removes a run and, through the foreign key cascade, its
// detections.
func (db *DB) DeleteRun(id string) error {
	res, err := db.Exec(`DELETE FROM scan_runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"apedash/internal/results"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// nullMetric converts an optional metric to a sql.NullFloat64.
func nullMetric(m map[string]float64, key string) sql.NullFloat64 {
	v, ok := m[key]
	return sql.NullFloat64{Float64: v, Valid: ok}
}

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersionV1

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

var _ Store = (*SqlStore)(nil)

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .apedash) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("store schema version %d is newer than this build supports (%d)", version, currentSchemaVersion)
	}
	return nil
}

// Close closes the underlying database.
func (s *SqlStore) Close() error { return s.db.Close() }

// SaveRun archives recs as a new run in a single transaction.
func (s *SqlStore) SaveRun(name, sourcePath string, recs []results.Record) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		"INSERT INTO runs (name, source_path, created_at, record_count) VALUES (?, ?, ?, ?)",
		name, sourcePath, nowUTC(), len(recs),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO records
		(run_id, algorithm, jobsite, subtag, video, plot_pdf, rmse, mean, median, std, min, max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		_, err := stmt.Exec(
			runID, r.Algorithm, r.Jobsite, r.Subtag, r.Video, r.PlotPDF,
			nullMetric(r.Metrics, results.MetricRMSE),
			nullMetric(r.Metrics, results.MetricMean),
			nullMetric(r.Metrics, results.MetricMedian),
			nullMetric(r.Metrics, results.MetricStd),
			nullMetric(r.Metrics, results.MetricMin),
			nullMetric(r.Metrics, results.MetricMax),
		)
		if err != nil {
			return 0, fmt.Errorf("insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// GetRun fetches one run by ID.
func (s *SqlStore) GetRun(runID int64) (*Run, error) {
	row := s.db.QueryRow(
		"SELECT id, name, source_path, created_at, record_count FROM runs WHERE id = ?", runID)
	return scanRun(row)
}

// LatestRun returns the most recently created run.
func (s *SqlStore) LatestRun() (*Run, error) {
	row := s.db.QueryRow(
		"SELECT id, name, source_path, created_at, record_count FROM runs ORDER BY id DESC LIMIT 1")
	return scanRun(row)
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Name, &r.SourcePath, &r.CreatedAt, &r.RecordCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &r, nil
}

// ListRuns returns all runs, newest first.
func (s *SqlStore) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(
		"SELECT id, name, source_path, created_at, record_count FROM runs ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Name, &r.SourcePath, &r.CreatedAt, &r.RecordCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// LoadRecords loads all records of a run in insertion order.
func (s *SqlStore) LoadRecords(runID int64) ([]results.Record, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT algorithm, jobsite, subtag, video, plot_pdf,
		rmse, mean, median, std, min, max FROM records WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	var recs []results.Record
	for rows.Next() {
		var r results.Record
		var rmse, mean, median, std, min, max sql.NullFloat64
		if err := rows.Scan(&r.Algorithm, &r.Jobsite, &r.Subtag, &r.Video, &r.PlotPDF,
			&rmse, &mean, &median, &std, &min, &max); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Metrics = map[string]float64{}
		putMetric(r.Metrics, results.MetricRMSE, rmse)
		putMetric(r.Metrics, results.MetricMean, mean)
		putMetric(r.Metrics, results.MetricMedian, median)
		putMetric(r.Metrics, results.MetricStd, std)
		putMetric(r.Metrics, results.MetricMin, min)
		putMetric(r.Metrics, results.MetricMax, max)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func putMetric(m map[string]float64, key string, v sql.NullFloat64) {
	if v.Valid {
		m[key] = v.Float64
	}
}

// Package history persists pipeline runs in a local SQLite database.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"hive-ingestion/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	started_at        TEXT NOT NULL,
	finished_at       TEXT NOT NULL,
	status            TEXT NOT NULL,
	data_url          TEXT NOT NULL,
	hdfs_path         TEXT NOT NULL,
	target_table      TEXT NOT NULL,
	bytes_transferred INTEGER NOT NULL DEFAULT 0,
	rows_previewed    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS stages (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	position    INTEGER NOT NULL,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// timeLayout is fixed width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored pipeline run.
type Run struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	Status           model.Status
	DataURL          string
	HDFSPath         string
	Table            string
	BytesTransferred int64
	RowsPreviewed    int
	Stages           []Stage
}

type Stage struct {
	Stage    model.Stage
	Status   model.Status
	Error    string
	Duration time.Duration
}

// Target identifies what a run ingested.
type Target struct {
	DataURL  string
	HDFSPath string
	Table    string
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history db %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a finished run and its stage results.
func (s *Store) RecordRun(report *model.RunReport, target Target) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, started_at, finished_at, status, data_url, hdfs_path, target_table, bytes_transferred, rows_previewed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		string(report.Status()),
		target.DataURL,
		target.HDFSPath,
		target.Table,
		report.BytesTransferred,
		len(report.Rows),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", report.RunID, err)
	}

	for i, res := range report.Results {
		var errText sql.NullString
		if res.Err != nil {
			errText = sql.NullString{String: res.Err.Error(), Valid: true}
		}
		_, err = tx.Exec(`INSERT INTO stages (run_id, position, stage, status, error, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			report.RunID, i, string(res.Stage), string(res.Status), errText, res.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("recording stage %s of run %s: %w", res.Stage, report.RunID, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first, without stages. A limit <= 0
// returns all runs.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	q := `SELECT id, started_at, finished_at, status, data_url, hdfs_path, target_table, bytes_transferred, rows_previewed
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its stages.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT id, started_at, finished_at, status, data_url, hdfs_path, target_table, bytes_transferred, rows_previewed
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT stage, status, error, duration_ms FROM stages
		WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			st      Stage
			stage   string
			status  string
			errText sql.NullString
			ms      int64
		)
		if err := rows.Scan(&stage, &status, &errText, &ms); err != nil {
			return nil, err
		}
		st.Stage = model.Stage(stage)
		st.Status = model.Status(status)
		st.Error = errText.String
		st.Duration = time.Duration(ms) * time.Millisecond
		r.Stages = append(r.Stages, st)
	}
	return r, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r                 Run
		started, finished string
		status            string
	)
	err := sc.Scan(&r.ID, &started, &finished, &status, &r.DataURL, &r.HDFSPath, &r.Table, &r.BytesTransferred, &r.RowsPreviewed)
	if err != nil {
		return nil, err
	}
	r.Status = model.Status(status)
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("run %s: bad started_at: %w", r.ID, err)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("run %s: bad finished_at: %w", r.ID, err)
	}
	return &r, nil
}

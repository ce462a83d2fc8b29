package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/sheet-doctor/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection; one connection keeps them in force.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	input         TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'running',
	mode          TEXT NOT NULL DEFAULT '',
	rows_in       INTEGER NOT NULL DEFAULT 0,
	clean         INTEGER NOT NULL DEFAULT 0,
	quarantined   INTEGER NOT NULL DEFAULT 0,
	removed       INTEGER NOT NULL DEFAULT 0,
	modified      INTEGER NOT NULL DEFAULT 0,
	needs_review  INTEGER NOT NULL DEFAULT 0,
	degraded      INTEGER NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT '',
	reason_counts TEXT,
	started_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

const runColumns = `id, input, status, mode, rows_in, clean, quarantined, removed, modified, needs_review, degraded, error, reason_counts, started_at, finished_at`

// Migrate creates the runs table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, input string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input, status, started_at) VALUES (?, ?, ?, ?)`,
		id, input, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Input:     input,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, run *model.Run) error {
	reasons, err := marshalReasons(run.ReasonCounts)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, mode = ?, rows_in = ?, clean = ?, quarantined = ?, removed = ?,
		 modified = ?, needs_review = ?, degraded = ?, reason_counts = ?, finished_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(run.Mode), run.RowsIn, run.Clean, run.Quarantined, run.Removed,
		run.Modified, run.NeedsReview, run.Degraded, reasons, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", run.ID)
	}
	if err := checkRowsAffected(res, run.ID); err != nil {
		return err
	}
	run.Status = model.RunStatusComplete
	run.FinishedAt = &now
	return nil
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Input != "" {
		query += ` AND input = ?`
		args = append(args, filter.Input)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	runs := []model.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var reasons sql.NullString
	var finished sql.NullTime

	err := row.Scan(&r.ID, &r.Input, &r.Status, &r.Mode, &r.RowsIn, &r.Clean, &r.Quarantined, &r.Removed,
		&r.Modified, &r.NeedsReview, &r.Degraded, &r.Error, &reasons, &r.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if reasons.Valid {
		if r.ReasonCounts, err = unmarshalReasons([]byte(reasons.String)); err != nil {
			return nil, err
		}
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

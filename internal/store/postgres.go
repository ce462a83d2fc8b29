package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/sheet-doctor/internal/db"
	"github.com/sells-group/sheet-doctor/internal/model"
)

// PostgresStore implements Store on a shared Postgres database.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects to connString and returns a PostgresStore.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS heal_history (
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
	degraded      BOOLEAN NOT NULL DEFAULT false,
	error         TEXT NOT NULL DEFAULT '',
	reason_counts JSONB,
	started_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_heal_history_status ON heal_history(status);
CREATE INDEX IF NOT EXISTS idx_heal_history_started_at ON heal_history(started_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, input string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO heal_history (id, input, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, input, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Input:     input,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, run *model.Run) error {
	reasons, err := marshalReasons(run.ReasonCounts)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE heal_history SET status = $1, mode = $2, rows_in = $3, clean = $4, quarantined = $5, removed = $6,
		 modified = $7, needs_review = $8, degraded = $9, reason_counts = $10, finished_at = $11 WHERE id = $12`,
		string(model.RunStatusComplete), string(run.Mode), run.RowsIn, run.Clean, run.Quarantined, run.Removed,
		run.Modified, run.NeedsReview, run.Degraded, reasons, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", run.ID)
	}
	run.Status = model.RunStatusComplete
	run.FinishedAt = &now
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, msg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE heal_history SET status = $1, error = $2, finished_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM heal_history WHERE id = $1`, runID)
	r, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM heal_history WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Input != "" {
		query += fmt.Sprintf(` AND input = $%d`, argIdx)
		args = append(args, filter.Input)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY started_at DESC LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var status, mode string
	var reasons []byte

	err := row.Scan(&r.ID, &r.Input, &status, &mode, &r.RowsIn, &r.Clean, &r.Quarantined, &r.Removed,
		&r.Modified, &r.NeedsReview, &r.Degraded, &r.Error, &reasons, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	r.Mode = model.Mode(mode)
	if r.ReasonCounts, err = unmarshalReasons(reasons); err != nil {
		return nil, err
	}
	return &r, nil
}

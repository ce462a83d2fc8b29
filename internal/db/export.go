package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sheet-doctor/internal/heal"
)

// DefaultSchema receives exports when none is configured.
const DefaultSchema = "public"

// Export table names.
const (
	TableRuns       = "heal_runs"
	TableHealed     = "healed_rows"
	TableQuarantine = "quarantine_rows"
	TableChangelog  = "change_log"
)

var (
	runColumns        = []string{"run_id", "input", "mode", "headers", "rows_in", "clean", "quarantined", "removed", "exported_at"}
	healedColumns     = []string{"run_id", "row_number", "cells", "was_modified", "needs_review"}
	quarantineColumns = []string{"run_id", "row_number", "cells", "class", "reason"}
	changelogColumns  = []string{"run_id", "seq", "row_number", "column_name", "old_value", "new_value", "action", "reason"}
)

const ddl = `
CREATE TABLE IF NOT EXISTS %[1]s.heal_runs (
	run_id      TEXT PRIMARY KEY,
	input       TEXT NOT NULL,
	mode        TEXT NOT NULL,
	headers     JSONB NOT NULL,
	rows_in     INTEGER NOT NULL,
	clean       INTEGER NOT NULL,
	quarantined INTEGER NOT NULL,
	removed     INTEGER NOT NULL,
	exported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[1]s.healed_rows (
	run_id       TEXT NOT NULL,
	row_number   INTEGER NOT NULL,
	cells        JSONB NOT NULL,
	was_modified BOOLEAN NOT NULL,
	needs_review BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS %[1]s.quarantine_rows (
	run_id     TEXT NOT NULL,
	row_number INTEGER NOT NULL,
	cells      JSONB NOT NULL,
	class      TEXT NOT NULL,
	reason     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS %[1]s.change_log (
	run_id      TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	row_number  INTEGER NOT NULL,
	column_name TEXT NOT NULL,
	old_value   TEXT NOT NULL,
	new_value   TEXT NOT NULL,
	action      TEXT NOT NULL,
	reason      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_healed_rows_run_id ON %[1]s.healed_rows(run_id);
CREATE INDEX IF NOT EXISTS idx_quarantine_rows_run_id ON %[1]s.quarantine_rows(run_id);
CREATE INDEX IF NOT EXISTS idx_change_log_run_id ON %[1]s.change_log(run_id);
`

// ExportCounts reports how many rows each table received.
type ExportCounts struct {
	Healed     int64 `json:"healed_rows"`
	Quarantine int64 `json:"quarantine_rows"`
	Changelog  int64 `json:"change_log"`
}

// Exporter copies healing results into Postgres.
type Exporter struct {
	pool   Pool
	schema string
}

// NewExporter returns an Exporter writing into schema.
func NewExporter(pool Pool, schema string) *Exporter {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Exporter{pool: pool, schema: schema}
}

// EnsureTables creates the schema and export tables when missing.
func (e *Exporter) EnsureTables(ctx context.Context) error {
	schema := pgx.Identifier{e.schema}.Sanitize()
	if _, err := e.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		return eris.Wrapf(err, "db: create schema %s", e.schema)
	}
	if _, err := e.pool.Exec(ctx, fmt.Sprintf(ddl, schema)); err != nil {
		return eris.Wrap(err, "db: create export tables")
	}
	return nil
}

// Export writes res under runID in a single transaction. Rows from an
// earlier export of the same run are replaced; on error nothing is written.
func (e *Exporter) Export(ctx context.Context, runID string, res *heal.Result) (ExportCounts, error) {
	var counts ExportCounts
	if err := e.EnsureTables(ctx); err != nil {
		return counts, err
	}

	headers, err := json.Marshal(res.Headers)
	if err != nil {
		return counts, eris.Wrap(err, "db: marshal headers")
	}
	healed, err := healedRows(runID, res)
	if err != nil {
		return counts, err
	}
	quarantined, err := quarantineRows(runID, res)
	if err != nil {
		return counts, err
	}
	s := res.Summary()

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return counts, eris.Wrap(err, "db: begin export")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	runs := Upsert{Table: e.schema + "." + TableRuns, Columns: runColumns, Keys: []string{"run_id"}}
	if _, err := runs.Apply(ctx, tx, [][]any{{
		runID, res.Source.Path, string(res.Mode), string(headers),
		s.RowsIn, s.Clean, s.Quarantined, s.Removed, time.Now().UTC(),
	}}); err != nil {
		return counts, err
	}

	for _, table := range []string{TableHealed, TableQuarantine, TableChangelog} {
		sql := fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", pgx.Identifier{e.schema, table}.Sanitize())
		if _, err := tx.Exec(ctx, sql, runID); err != nil {
			return counts, eris.Wrapf(err, "db: clear %s for run %s", table, runID)
		}
	}

	if counts.Healed, err = CopyFrom(ctx, tx, e.schema, TableHealed, healedColumns, healed); err != nil {
		return ExportCounts{}, err
	}
	if counts.Quarantine, err = CopyFrom(ctx, tx, e.schema, TableQuarantine, quarantineColumns, quarantined); err != nil {
		return ExportCounts{}, err
	}
	if counts.Changelog, err = CopyFrom(ctx, tx, e.schema, TableChangelog, changelogColumns, changelogRows(runID, res)); err != nil {
		return ExportCounts{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ExportCounts{}, eris.Wrapf(err, "db: commit export of run %s", runID)
	}

	zap.L().Info("db: exported run",
		zap.String("run_id", runID),
		zap.String("schema", e.schema),
		zap.Int64("healed_rows", counts.Healed),
		zap.Int64("quarantine_rows", counts.Quarantine),
		zap.Int64("change_log", counts.Changelog),
	)
	return counts, nil
}

func healedRows(runID string, res *heal.Result) ([][]any, error) {
	rows := make([][]any, 0, len(res.Clean))
	for _, r := range res.Clean {
		cells, err := json.Marshal(r.Cells)
		if err != nil {
			return nil, eris.Wrap(err, "db: marshal clean row")
		}
		rows = append(rows, []any{runID, r.Row, string(cells), r.WasModified, r.NeedsReview})
	}
	return rows, nil
}

func quarantineRows(runID string, res *heal.Result) ([][]any, error) {
	rows := make([][]any, 0, len(res.Quarantine))
	for _, q := range res.Quarantine {
		cells, err := json.Marshal(q.Cells)
		if err != nil {
			return nil, eris.Wrap(err, "db: marshal quarantine row")
		}
		rows = append(rows, []any{runID, q.Row, string(cells), string(q.Class), q.Reason})
	}
	return rows, nil
}

func changelogRows(runID string, res *heal.Result) [][]any {
	entries := res.Changelog.Entries()
	rows := make([][]any, 0, len(entries))
	for i, c := range entries {
		rows = append(rows, []any{runID, i + 1, c.Row, c.Column, c.OldValue, c.NewValue, string(c.Action), c.Reason})
	}
	return rows
}

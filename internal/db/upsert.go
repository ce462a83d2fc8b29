package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Upsert describes a keyed write into Table, which may be schema-qualified
// ("audit.heal_runs"). Rows are staged in a temp table and merged with
// INSERT ... ON CONFLICT, so re-exporting a run overwrites its summary.
type Upsert struct {
	Table   string
	Columns []string
	Keys    []string
	// Update lists the columns overwritten on conflict. Nil means every
	// non-key column.
	Update []string
}

func (u Upsert) validate() error {
	if len(u.Columns) == 0 {
		return eris.Errorf("db: upsert %s: no columns", u.Table)
	}
	if len(u.Keys) == 0 {
		return eris.Errorf("db: upsert %s: no conflict keys", u.Table)
	}
	return nil
}

func (u Upsert) updateColumns() []string {
	if u.Update != nil {
		return u.Update
	}
	keys := make(map[string]bool, len(u.Keys))
	for _, k := range u.Keys {
		keys[k] = true
	}
	var cols []string
	for _, c := range u.Columns {
		if !keys[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

func (u Upsert) stagingTable() string {
	return "staging_" + strings.ReplaceAll(u.Table, ".", "_")
}

func (u Upsert) mergeSQL() string {
	cols := quoteAndJoin(u.Columns)
	action := "DO NOTHING"
	if update := u.updateColumns(); len(update) > 0 {
		sets := make([]string, len(update))
		for i, c := range update {
			col := pgx.Identifier{c}.Sanitize()
			sets[i] = col + " = EXCLUDED." + col
		}
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		sanitizeTable(u.Table), cols, cols,
		pgx.Identifier{u.stagingTable()}.Sanitize(),
		quoteAndJoin(u.Keys), action)
}

// Apply merges rows into the target table. q must be a transaction: the
// staging table is dropped on commit.
func (u Upsert) Apply(ctx context.Context, q Querier, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := u.validate(); err != nil {
		return 0, err
	}

	staging := pgx.Identifier{u.stagingTable()}
	create := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		staging.Sanitize(), sanitizeTable(u.Table))
	if _, err := q.Exec(ctx, create); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: create staging table", u.Table)
	}
	if _, err := q.CopyFrom(ctx, staging, u.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: stage rows", u.Table)
	}
	tag, err := q.Exec(ctx, u.mergeSQL())
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: merge", u.Table)
	}
	return tag.RowsAffected(), nil
}

// sanitizeTable quotes a table name that may carry a schema prefix.
func sanitizeTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

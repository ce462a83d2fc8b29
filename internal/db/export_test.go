package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/heal"
	"github.com/sells-group/sheet-doctor/internal/model"
)

func healedResult(t *testing.T) *heal.Result {
	t.Helper()
	rows := [][]string{
		model.SchemaHeaders,
		{"Alice Smith", "Engineering", "2023-03-15", "100.00", "USD", "Travel", "Approved", "Taxi"},
		{"", "", "", "", "", "", "", ""},
		{"Bob Jones", "Sales", "2023-03-16", "50.00", "EUR", "Meals", "Pending", "Lunch"},
	}
	res, err := heal.Rows(rows, heal.Source{Path: "expenses.csv"}, heal.Options{})
	require.NoError(t, err)
	return res
}

func expectTables(mock pgxmock.PgxPoolIface, schema string) {
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "` + schema + `"\.heal_runs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
}

func TestExporter_EnsureTables(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectTables(mock, "public")
	require.NoError(t, NewExporter(mock, "").EnsureTables(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExporter_EnsureTablesError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "audit"`).WillReturnError(errors.New("permission denied"))
	err = NewExporter(mock, "audit").EnsureTables(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: create schema audit")
}

func expectExportWrites(mock pgxmock.PgxPoolIface) {
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "staging_audit_heal_runs"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"staging_audit_heal_runs"}, runColumns).WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "audit"."heal_runs"`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for _, table := range []string{"healed_rows", "quarantine_rows", "change_log"} {
		mock.ExpectExec(`DELETE FROM "audit"."` + table + `" WHERE run_id = \$1`).
			WithArgs("run-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
	}
	mock.ExpectCopyFrom(pgx.Identifier{"audit", "healed_rows"}, healedColumns).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"audit", "quarantine_rows"}, quarantineColumns).WillReturnResult(1)
}

func TestExporter_Export(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	res := healedResult(t)
	expectTables(mock, "audit")
	expectExportWrites(mock)
	mock.ExpectCopyFrom(pgx.Identifier{"audit", "change_log"}, changelogColumns).WillReturnResult(int64(res.Changelog.Len()))
	mock.ExpectCommit()

	counts, err := NewExporter(mock, "audit").Export(context.Background(), "run-1", res)
	require.NoError(t, err)
	assert.Equal(t, ExportCounts{Healed: 2, Quarantine: 1, Changelog: int64(res.Changelog.Len())}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExporter_ExportRollsBackOnCopyFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	res := healedResult(t)
	expectTables(mock, "audit")
	expectExportWrites(mock)
	mock.ExpectCopyFrom(pgx.Identifier{"audit", "change_log"}, changelogColumns).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	counts, err := NewExporter(mock, "audit").Export(context.Background(), "run-1", res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `COPY INTO "audit"."change_log"`)
	assert.Equal(t, ExportCounts{}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExporter_ExportBeginError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectTables(mock, "audit")
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err = NewExporter(mock, "audit").Export(context.Background(), "run-1", healedResult(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: begin export")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRows(t *testing.T) {
	res := healedResult(t)

	healed, err := healedRows("run-1", res)
	require.NoError(t, err)
	require.Len(t, healed, 2)
	assert.Equal(t, []any{"run-1", 2, `["Alice Smith","Engineering","2023-03-15","100.00","USD","Travel","Approved","Taxi"]`, false, false}, healed[0])

	quarantined, err := quarantineRows("run-1", res)
	require.NoError(t, err)
	require.Len(t, quarantined, 1)
	assert.Equal(t, "EMPTY", quarantined[0][3])
	assert.Equal(t, "Completely empty row", quarantined[0][4])

	changes := changelogRows("run-1", res)
	require.Len(t, changes, res.Changelog.Len())
	assert.Equal(t, 1, changes[0][1])
}

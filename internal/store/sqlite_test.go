package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_CreateCompleteGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "expenses.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	run.Mode = model.ModeSchema
	run.RowsIn = 10
	run.Clean = 6
	run.Quarantined = 2
	run.Removed = 1
	run.Modified = 3
	run.NeedsReview = 2
	run.Degraded = true
	run.ReasonCounts = map[string]int{"Completely empty row": 1, "Calculated subtotal row": 1}
	require.NoError(t, st.CompleteRun(ctx, run))
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.FinishedAt)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "expenses.csv", got.Input)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, model.ModeSchema, got.Mode)
	assert.Equal(t, 10, got.RowsIn)
	assert.Equal(t, 6, got.Clean)
	assert.Equal(t, 2, got.Quarantined)
	assert.Equal(t, 1, got.Removed)
	assert.Equal(t, 3, got.Modified)
	assert.Equal(t, 2, got.NeedsReview)
	assert.True(t, got.Degraded)
	assert.Equal(t, run.ReasonCounts, got.ReasonCounts)
	assert.NotNil(t, got.FinishedAt)
	assert.False(t, got.StartedAt.IsZero())
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "broken.xlsx")
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, run.ID, "Sheet 'X' not found"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "Sheet 'X' not found", got.Error)
	assert.Nil(t, got.ReasonCounts)
}

func TestSQLite_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	err = st.FailRun(ctx, "missing", "x")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	err = st.CompleteRun(ctx, &model.Run{ID: "missing"})
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, "a.csv")
	require.NoError(t, err)
	b, err := st.CreateRun(ctx, "b.csv")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "c.csv")
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, a))
	require.NoError(t, st.FailRun(ctx, b.ID, "boom"))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, a.ID, complete[0].ID)

	byInput, err := st.ListRuns(ctx, RunFilter{Input: "b.csv"})
	require.NoError(t, err)
	require.Len(t, byInput, 1)
	assert.Equal(t, model.RunStatusFailed, byInput[0].Status)

	page, err := st.ListRuns(ctx, RunFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	none, err := st.ListRuns(ctx, RunFilter{Input: "zzz"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestOpen(t *testing.T) {
	st, err := Open(context.Background(), "", filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	require.NoError(t, st.Close())

	_, err = Open(context.Background(), "mysql", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

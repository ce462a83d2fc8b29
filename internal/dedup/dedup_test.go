package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/model"
)

func TestIndex(t *testing.T) {
	x := NewIndex()

	_, dup := x.Seen([]string{"a", "b"}, 2)
	assert.False(t, dup)
	first, dup := x.Seen([]string{"a", "b"}, 5)
	assert.True(t, dup)
	assert.Equal(t, 2, first)

	_, dup = x.Seen([]string{"ab", ""}, 6)
	assert.False(t, dup, "cell boundaries are part of the key")
	assert.Equal(t, 2, x.Len())
}

func TestIndex_ManyCopies(t *testing.T) {
	x := NewIndex()
	row := []string{"Alice", "10.00"}
	var removed []model.Change
	for n := 2; n <= 6; n++ {
		if first, dup := x.Seen(row, n); dup {
			removed = append(removed, Removed(n, first, row[0]))
		}
	}
	require.Len(t, removed, 4)
	for _, c := range removed {
		assert.Equal(t, "Exact duplicate of row 2", c.Reason)
		assert.Equal(t, model.ActionRemoved, c.Action)
		assert.Equal(t, model.ColumnRow, c.Column)
	}
}

func schemaRow(row int, name, date, amount string) model.CleanRow {
	return model.CleanRow{
		Row:   row,
		Cells: []string{name, "Ops", date, amount, "USD", "Travel", "Approved", ""},
	}
}

func TestFlagNearDuplicates_Schema(t *testing.T) {
	rows := []model.CleanRow{
		schemaRow(2, "Alice", "2023-01-01", "10.00"),
		schemaRow(3, "Alice", "2023-01-03", "10.00"),
		schemaRow(4, "Bob", "2023-01-01", "10.00"),
	}
	log := model.NewChangelog()

	assert.Equal(t, 1, FlagNearDuplicates(rows, log, SchemaNearKey()))
	assert.True(t, rows[0].NeedsReview)
	assert.True(t, rows[1].NeedsReview)
	assert.False(t, rows[2].NeedsReview)

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, model.Change{
		Row: 3, Column: model.ColumnRow, OldValue: "Alice", Action: model.ActionFlagged,
		Reason: "Near-duplicate: same Name/Amount/Currency/Category; date 2023-01-03 differs by 2 day(s) from row 2 (2023-01-01)",
	}, entries[0])
	assert.Equal(t, 2, entries[1].Row)
	assert.Contains(t, entries[1].Reason, "date 2023-01-01 differs by 2 day(s) from row 3 (2023-01-03)")
}

func TestFlagNearDuplicates_OutsideWindow(t *testing.T) {
	rows := []model.CleanRow{
		schemaRow(2, "Alice", "2023-01-01", "10.00"),
		schemaRow(3, "Alice", "2023-01-04", "10.00"),
		schemaRow(4, "Alice", "not a date", "10.00"),
	}
	log := model.NewChangelog()

	assert.Zero(t, FlagNearDuplicates(rows, log, SchemaNearKey()))
	for _, r := range rows {
		assert.False(t, r.NeedsReview)
	}
	assert.Zero(t, log.Len())
}

func TestSemanticNearKey(t *testing.T) {
	roles := map[int]model.Role{
		0: model.RoleIdentifier,
		1: model.RoleName,
		2: model.RoleDate,
		3: model.RoleAmount,
		4: model.RoleNotes,
	}
	key, ok := SemanticNearKey(roles, 2, 3, 1)
	require.True(t, ok)
	assert.Equal(t, []int{1, 3}, key.Columns)

	_, ok = SemanticNearKey(roles, -1, 3, 1)
	assert.False(t, ok)
	_, ok = SemanticNearKey(map[int]model.Role{2: model.RoleDate, 3: model.RoleAmount}, 2, 3, 0)
	assert.False(t, ok, "one identity column is not enough")

	rows := []model.CleanRow{
		{Row: 5, Cells: []string{"A-1", "Alice", "2023-03-01", "5.00", "x"}},
		{Row: 9, Cells: []string{"A-2", "Alice", "2023-03-01", "5.00", "y"}},
	}
	log := model.NewChangelog()
	assert.Equal(t, 1, FlagNearDuplicates(rows, log, key))
	assert.Equal(t, "Near-duplicate: same semantic key columns; date 2023-03-01 differs by 0 day(s) from row 5 (2023-03-01)", log.Entries()[0].Reason)
}

func TestForwardFill(t *testing.T) {
	headers := []string{"Name", "Team", "Amount"}
	rows := []model.CleanRow{
		{Row: 2, Cells: []string{"Alice", "Ops", "1"}},
		{Row: 3, Cells: []string{"Bob", "", "2"}},
		{Row: 4, Cells: []string{"Cara", "", "3"}},
		{Row: 5, Cells: []string{"Dan", "Sales", "4"}},
		{Row: 6, Cells: []string{"", "", "5"}},
		{Row: 7, Cells: []string{"Eve", "", "6"}},
	}
	log := model.NewChangelog()

	assert.Equal(t, 3, ForwardFill(rows, log, headers, []int{1}))
	assert.Equal(t, "Ops", rows[1].Cells[1])
	assert.Equal(t, "Ops", rows[2].Cells[1])
	assert.True(t, rows[1].WasModified)
	assert.True(t, rows[1].NeedsReview)
	assert.Equal(t, "", rows[4].Cells[1], "row with one other filled cell breaks the run")
	assert.Equal(t, "Sales", rows[5].Cells[1], "trailing run is filled")

	e := log.Entries()[0]
	assert.Equal(t, model.Change{Row: 3, Column: "Team", NewValue: "Ops", Action: model.ActionFixed, Reason: fillReason}, e)
}

func TestForwardFill_LongGapUntouched(t *testing.T) {
	rows := []model.CleanRow{{Row: 2, Cells: []string{"a", "Ops", "1"}}}
	for i := 0; i < 6; i++ {
		rows = append(rows, model.CleanRow{Row: 3 + i, Cells: []string{"b", "", "2"}})
	}
	rows = append(rows, model.CleanRow{Row: 9, Cells: []string{"c", "HR", "3"}})

	assert.Zero(t, ForwardFill(rows, model.NewChangelog(), []string{"Name", "Team", "Amount"}, []int{1}))
	for _, r := range rows[1:7] {
		assert.Empty(t, r.Cells[1])
	}
}

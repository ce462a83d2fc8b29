package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/model"
)

var schemaSig = NewSignature(model.SchemaHeaders)

func TestSchema(t *testing.T) {
	prose := "Approved by the regional manager after the quarterly expense review meeting concluded"
	tests := []struct {
		name string
		row  []string
		want model.RowClass
	}{
		{"empty", strings.Split(",,,,,,,", ","), model.ClassEmpty},
		{"whitespace", []string{" ", "", "", "", "", "", "", "\t"}, model.ClassWhitespace},
		{"header repeat", []string{"employee name", "DEPARTMENT", "Date", "Amount", "Currency", "Category", "Status", "Notes"}, model.ClassStructuralHeader},
		{"notes", []string{prose, "", "", "", "", "", "", ""}, model.ClassNotesRow},
		{"formula", []string{"A", "B", "=SUM(D2:D9)", "1", "USD", "x", "y", ""}, model.ClassFormula},
		{"total with amount", strings.Split("TOTAL,,,45234.50,,,,", ","), model.ClassNormal},
		{"total without amount", strings.Split("TOTAL,,,,,,,", ","), model.ClassSparse},
		{"sparse", []string{"Alice", "Ops", "", "", "", "", "", ""}, model.ClassSparse},
		{"normal", []string{"Alice", "Ops", "2023-01-01", "10", "USD", "Travel", "Approved", ""}, model.ClassNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Schema(tt.row, schemaSig))
		})
	}
}

func TestGeneric(t *testing.T) {
	sig := NewSignature([]string{"id", "label", "qty", "note"})

	assert.Equal(t, model.ClassStructuralTotal, Generic([]string{"Total", "500", "", ""}, sig, 4))
	assert.Equal(t, model.ClassStructuralHeader, Generic([]string{" ID", "Label ", "qty", "note"}, sig, 4))
	assert.Equal(t, model.ClassNormal, Generic([]string{"1", "", "", ""}, sig, 4))

	wide := NewSignature(make([]string, 8))
	assert.Equal(t, model.ClassSparse, Generic([]string{"a", "", "", "", "", "", "", ""}, wide, 8))
	assert.Equal(t, model.ClassNormal, Generic([]string{"a", "b", "", "", "", "", "", ""}, wide, 8))
}

func TestQuarantine(t *testing.T) {
	headers := []string{"id", "calc", "note"}
	q, change := Quarantine([]string{" 7 ", "=A1*2", "x", "extra"}, 5, model.ClassFormula, model.ModeGeneric, headers)

	assert.Equal(t, []string{"7", "=A1*2", "x"}, q.Cells)
	assert.Equal(t, "Excel formula found, not data", q.Reason)
	assert.Equal(t, model.Change{
		Row: 5, Column: "calc", OldValue: "7",
		Action: model.ActionQuarantined, Reason: model.FormulaChangeReason,
	}, change)

	q, change = Quarantine(nil, 9, model.ClassEmpty, model.ModeSchema, model.SchemaHeaders)
	assert.Len(t, q.Cells, model.SchemaWidth)
	assert.Equal(t, "[empty]", change.OldValue)
	assert.Equal(t, model.ColumnRow, change.Column)
	assert.Equal(t, "Completely empty row", change.Reason)
}

func TestAlignSchema(t *testing.T) {
	t.Run("exact width", func(t *testing.T) {
		row := make([]string, 8)
		got, change, padded := AlignSchema(row, 2)
		assert.Equal(t, row, got)
		assert.Nil(t, change)
		assert.False(t, padded)
	})

	t.Run("ghost column", func(t *testing.T) {
		row := []string{"", "A", "B", "C", "D", "E", "F", "G", "H"}
		got, change, _ := AlignSchema(row, 3)
		assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G", "H"}, got)
		require.NotNil(t, change)
		assert.Equal(t, "9 columns (empty leading ghost col)", change.OldValue)
		assert.Equal(t, "Shifted-right row: empty leading column stripped", change.Reason)
	})

	t.Run("phantom comma", func(t *testing.T) {
		row := []string{"A", "B", "C", "D", "E", "F", "G", "", "late note"}
		got, change, _ := AlignSchema(row, 4)
		assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G", "late note"}, got)
		require.NotNil(t, change)
		assert.Equal(t, "Notes", change.Column)
		assert.Equal(t, "[ghost field] + 'late note'", change.OldValue)
	})

	t.Run("unquoted commas", func(t *testing.T) {
		row := []string{"A", "B", "C", "D", "E", "F", "G", "note1", " note2", " note3"}
		got, change, padded := AlignSchema(row, 5)
		assert.Equal(t, "note1,  note2,  note3", got[7])
		require.NotNil(t, change)
		assert.Equal(t, "3 fragments: 'note1'...", change.OldValue)
		assert.False(t, padded)
	})

	t.Run("short row", func(t *testing.T) {
		got, change, padded := AlignSchema([]string{"A", "B", "C"}, 6)
		assert.Len(t, got, 8)
		require.NotNil(t, change)
		assert.Equal(t, "8 columns (5 empty field(s) appended)", change.NewValue)
		assert.Equal(t, "Short row padded with 5 empty field(s)", change.Reason)
		assert.True(t, padded)
	})
}

func TestAlignGeneric(t *testing.T) {
	got, change, changed := AlignGeneric([]string{"a", "b", "c", "", "d"}, 2, 3, ";")
	assert.Equal(t, []string{"a", "b", "c; d"}, got)
	require.NotNil(t, change)
	assert.Equal(t, "Overflow columns merged into last column using delimiter ';'", change.Reason)
	assert.True(t, changed)

	got, change, changed = AlignGeneric([]string{"a"}, 2, 3, ",")
	assert.Equal(t, []string{"a", "", ""}, got)
	require.NotNil(t, change)
	assert.True(t, changed)

	_, change, changed = AlignGeneric([]string{"a", "b", "c"}, 2, 3, ",")
	assert.Nil(t, change)
	assert.False(t, changed)
}

func TestTotals(t *testing.T) {
	assert.True(t, AmountTotalish("Total", "100.00", 99.5))
	assert.True(t, AmountTotalish("Grand Total", "$1,000", 990))
	assert.False(t, AmountTotalish("Total", "150", 100))
	assert.False(t, AmountTotalish("Rent", "100", 100))
	assert.False(t, AmountTotalish("Total", "n/a", 0))

	assert.True(t, SparseTotalRow([]string{"Subtotal", "", "40"}, 0, 2))
	assert.False(t, SparseTotalRow([]string{"Subtotal", "x", "40"}, 0, 2))
	assert.False(t, SparseTotalRow([]string{"Subtotal", "", "forty"}, 0, 2))
}

func TestLooksLikeNotesRow(t *testing.T) {
	assert.True(t, LooksLikeNotesRow([]string{"", "This report was generated automatically from the finance system export tool", ""}))
	assert.False(t, LooksLikeNotesRow([]string{"short note"}))
	assert.False(t, LooksLikeNotesRow([]string{"This report was generated automatically from the finance system", "x"}))
}

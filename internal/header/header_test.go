package header

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/model"
)

func TestPreprocess_MetadataAboveSchemaHeader(t *testing.T) {
	rows := [][]string{
		{"Expense Report Q1"},
		{"Generated 2023-04-01"},
		model.SchemaHeaders,
		{"Alice", "Ops", "2023-01-01", "10", "USD", "Travel", "Approved", ""},
	}
	res := Preprocess(rows, 0)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, model.SchemaHeaders, res.Rows[0])
	assert.Equal(t, 3, res.HeaderRow())
	assert.Equal(t, 4, res.DataRowNumber(0))
	assert.Equal(t, 2, res.MetadataRemoved())
	assert.False(t, res.BandMerged())
	require.Len(t, res.Changes, 2)
	assert.Equal(t, model.Change{
		Row: 1, Column: model.ColumnMetadata, OldValue: "Expense Report Q1",
		Action: model.ActionRemoved, Reason: metadataReason,
	}, res.Changes[0])
}

func TestPreprocess_HeaderBand(t *testing.T) {
	rows := [][]string{
		{"Report", "", ""},
		{"Region", "", "Sales"},
		{"Name", "Q1", "Q2"},
		{"Alice", "10", "20"},
		{"Bob", "5", "7"},
	}
	res := Preprocess(rows, 0)

	assert.Equal(t, 2, res.HeaderIndex)
	assert.Equal(t, 1, res.BandStart)
	assert.Equal(t, []int{2, 3}, res.BandRows())
	assert.True(t, res.BandMerged())
	assert.Equal(t, 1, res.MetadataRemoved())
	assert.Equal(t, [][]string{
		{"Region Name", "Region Q1", "Sales Q2"},
		{"Alice", "10", "20"},
		{"Bob", "5", "7"},
	}, res.Rows)

	band := res.Changes[1]
	assert.Equal(t, model.ColumnHeaderBand, band.Column)
	assert.Equal(t, 2, band.Row)
	assert.Equal(t, "Region | Sales | Name | Q1 | Q2", band.OldValue)
	assert.Equal(t, "Region Name | Region Q1 | Sales Q2", band.NewValue)
}

func TestPreprocess_TrimsSparseEdges(t *testing.T) {
	rows := [][]string{
		{"", "id", "name", ""},
		{"", "1", "a", ""},
		{"x", "2", "b", ""},
		{"", "3", "c", ""},
	}
	res := Preprocess(rows, 0)

	assert.Equal(t, 0, res.HeaderIndex)
	assert.Equal(t, [][]string{{"id", "name"}, {"1", "a"}, {"2", "b"}, {"3", "c"}}, res.Rows)
	require.Len(t, res.Changes, 2)
	assert.Equal(t, "Removed 1 leading sparse column(s)", res.Changes[0].OldValue)
	assert.Equal(t, "Removed 1 trailing sparse column(s)", res.Changes[1].OldValue)
	assert.Equal(t, model.ColumnTrimming, res.Changes[1].Column)
}

func TestPreprocess_Empty(t *testing.T) {
	res := Preprocess(nil, 0)
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Changes)
}

func TestDetectRow_Explicit(t *testing.T) {
	rows := [][]string{{"a"}, {"b"}, {"c"}}
	assert.Equal(t, 1, DetectRow(rows, 2))
	assert.Equal(t, 2, DetectRow(rows, 99))
}

func TestDetectRow_SchemaHeaderMustHaveData(t *testing.T) {
	rows := [][]string{{"title"}, model.SchemaHeaders}
	assert.Equal(t, 0, DetectRow(rows, 0))
}

func TestLooksLikeHeader(t *testing.T) {
	assert.True(t, LooksLikeHeader([]string{"Customer", "Invoice Date", "Total"}))
	assert.False(t, LooksLikeHeader([]string{"Alice", "2023-01-01", "10.00"}))
	assert.False(t, LooksLikeHeader([]string{"Only"}))
	assert.False(t, LooksLikeHeader([]string{"Label", "=SUM(A1:A4)"}))
}

func TestDataSignal(t *testing.T) {
	assert.Equal(t, 3, DataSignal([]string{"$5", "approved", "Jan 4", "plain"}))
	assert.Equal(t, 0, DataSignal([]string{"Name", "Team"}))
}

func TestMergeBand(t *testing.T) {
	got := MergeBand([][]string{
		{"Vitals", "", "", "Labs"},
		{"BP", "HR", "HR", "GFR"},
	})
	assert.Equal(t, []string{"Vitals BP", "Vitals HR", "Vitals HR", "Labs GFR"}, got)
	assert.Nil(t, MergeBand(nil))
}

func TestNormalizeGeneric(t *testing.T) {
	headers, changes := NormalizeGeneric([]string{"\ufeffName", "name", "", "  Total  Due "}, 1)

	assert.Equal(t, []string{"Name", "name_2", "column_3", "Total Due"}, headers)
	require.Len(t, changes, 4)
	assert.Equal(t, "BOM byte-order mark stripped", changes[0].Reason)
	assert.Equal(t, "Duplicate header renamed with suffix", changes[1].Reason)
	assert.Equal(t, "Header normalised", changes[2].Reason)
	assert.Equal(t, "[header col 4]", changes[3].Column)
}

func TestNormalizeGeneric_SuffixAvoidsExistingNames(t *testing.T) {
	headers, _ := NormalizeGeneric([]string{"a", "a", "a_2", "", "column_4"}, 1)
	assert.Equal(t, []string{"a", "a_3", "a_2", "column_4", "column_4_2"}, headers)

	seen := map[string]bool{}
	for _, h := range headers {
		assert.False(t, seen[strings.ToLower(h)], "duplicate header %q", h)
		seen[strings.ToLower(h)] = true
	}

	headers, _ = NormalizeGeneric([]string{"X", "x", "x", "X_2"}, 1)
	assert.Equal(t, []string{"X", "x_3", "x_4", "X_2"}, headers)
}

package writer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/sheet-doctor/internal/heal"
	"github.com/sells-group/sheet-doctor/internal/model"
)

func healed(t *testing.T) *heal.Result {
	t.Helper()
	rows := [][]string{
		model.SchemaHeaders,
		{"Alice Smith", "Engineering", "2023-03-15", "100.00", "USD", "Travel", "Approved", "Taxi"},
		{"", "", "", "", "", "", "", ""},
		{"Bob Jones", "Sales", "2023-03-16", "50", "EUR", "Meals", "Pending", "Lunch"},
	}
	res, err := heal.Rows(rows, heal.Source{Path: "/tmp/expenses.csv", Format: "csv"}, heal.Options{})
	require.NoError(t, err)
	return res
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestStem(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"data/expenses.csv", "expenses"},
		{"report.v2.xlsx", "report.v2"},
		{"https://example.com/files/q1.csv?token=abc", "q1"},
		{"noext", "noext"},
		{"", "output"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Stem(tt.in))
		})
	}
}

func TestTables(t *testing.T) {
	res := healed(t)

	clean := CleanTable(res.Headers, res.Clean)
	require.Len(t, clean, 3)
	assert.Equal(t, append(append([]string(nil), model.SchemaHeaders...), "Was Modified", "Needs Review"), clean[0])
	assert.Equal(t, []string{"Alice Smith", "Engineering", "2023-03-15", "100.00", "USD", "Travel", "Approved", "Taxi", "FALSE", "FALSE"}, clean[1])
	assert.Equal(t, "50.00", clean[2][model.ColAmount])
	assert.Equal(t, "TRUE", clean[2][model.SchemaWidth])

	quarantine := QuarantineTable(res.Headers, res.Quarantine)
	require.Len(t, quarantine, 2)
	assert.Equal(t, "Quarantine Reason", quarantine[0][model.SchemaWidth])
	assert.Equal(t, "Completely empty row", quarantine[1][model.SchemaWidth])

	changes := ChangelogTable(res.Changelog.Entries())
	assert.Equal(t, []string{"Row", "Column", "Original Value", "New Value", "Action", "Reason"}, changes[0])
	assert.Len(t, changes, res.Changelog.Len()+1)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, [][]string{{"a", "b"}, {"x,y", "line\nbreak"}}))
	assert.Equal(t, "a,b\n\"x,y\",\"line\nbreak\"\n", buf.String())
}

func TestWrite_AllFormats(t *testing.T) {
	res := healed(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := Write(res, dir, "expenses", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "expenses_clean.csv"),
		filepath.Join(dir, "expenses_quarantine.csv"),
		filepath.Join(dir, "expenses_changelog.csv"),
		filepath.Join(dir, "expenses_healed.xlsx"),
		filepath.Join(dir, "expenses_report.json"),
	}, paths)

	clean := readCSV(t, paths[0])
	assert.Len(t, clean, 3)
	assert.Equal(t, "Needs Review", clean[0][len(clean[0])-1])

	wb, err := xlsx.OpenFile(paths[3])
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 3)
	assert.Equal(t, SheetClean, wb.Sheets[0].Name)
	assert.Equal(t, SheetQuarantine, wb.Sheets[1].Name)
	assert.Equal(t, SheetChangelog, wb.Sheets[2].Name)
	assert.Equal(t, "Alice Smith", wb.Sheets[0].Rows[1].Cells[0].String())

	data, err := os.ReadFile(paths[4])
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "schema-specific", report["mode"])
	assert.Equal(t, "/tmp/expenses.csv", report["input"])
	summary := report["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["clean_rows"])
	assert.EqualValues(t, 1, summary["quarantined_rows"])
}

func TestWrite_SelectedFormat(t *testing.T) {
	res := healed(t)
	dir := t.TempDir()

	paths, err := Write(res, dir, "x", []string{"JSON"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "x_report.json")}, paths)

	_, err = Write(res, dir, "x", []string{"parquet"})
	assert.Error(t, err)
}

func TestNewReport(t *testing.T) {
	res := healed(t)
	res.RunID = "run-1"
	r := NewReport(res)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, model.ModeSchema, r.Mode)
	assert.Equal(t, res.Assumptions, r.Assumptions)
	assert.Equal(t, 1, r.Summary.ReasonCounts["Completely empty row"])
	assert.Equal(t, 1, r.Summary.ActionCounts[model.ActionQuarantined])
}

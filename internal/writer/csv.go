package writer

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sheet-doctor/internal/heal"
	"github.com/sells-group/sheet-doctor/internal/model"
)

// CleanTable is the clean sheet: headers plus modification flags.
func CleanTable(headers []string, rows []model.CleanRow) [][]string {
	out := [][]string{append(append([]string(nil), headers...), cleanExtras...)}
	for _, r := range rows {
		row := fit(r.Cells, len(headers))
		out = append(out, append(row, boolText(r.WasModified), boolText(r.NeedsReview)))
	}
	return out
}

// QuarantineTable is the quarantine sheet: original columns plus the reason.
func QuarantineTable(headers []string, rows []model.QuarantineRow) [][]string {
	out := [][]string{append(append([]string(nil), headers...), quarantineExtras...)}
	for _, r := range rows {
		out = append(out, append(fit(r.Cells, len(headers)), r.Reason))
	}
	return out
}

// ChangelogTable is the audit trail as a table.
func ChangelogTable(changes []model.Change) [][]string {
	out := [][]string{append([]string(nil), changelogHeaders...)}
	for _, c := range changes {
		out = append(out, []string{
			strconv.Itoa(c.Row),
			c.Column,
			c.OldValue,
			c.NewValue,
			string(c.Action),
			c.Reason,
		})
	}
	return out
}

// WriteCSV writes table to w.
func WriteCSV(w io.Writer, table [][]string) error {
	cw := csv.NewWriter(w)
	for _, row := range table {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "writer: write CSV row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "writer: flush CSV")
	}
	return nil
}

func writeCSVFiles(res *heal.Result, dir, stem string) ([]string, error) {
	tables := []struct {
		suffix string
		table  [][]string
	}{
		{"_clean.csv", CleanTable(res.Headers, res.Clean)},
		{"_quarantine.csv", QuarantineTable(res.Headers, res.Quarantine)},
		{"_changelog.csv", ChangelogTable(res.Changelog.Entries())},
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, stem+t.suffix)
		if err := writeCSVFile(path, t.table); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSVFile(path string, table [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "writer: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	return WriteCSV(f, table)
}

package writer

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/sheet-doctor/internal/heal"
)

// Workbook sheet names.
const (
	SheetClean      = "Clean Data"
	SheetQuarantine = "Quarantine"
	SheetChangelog  = "Change Log"
)

// WriteWorkbook writes the clean, quarantine and changelog tables as one
// workbook, without styling.
func WriteWorkbook(res *heal.Result, path string) error {
	f := xlsx.NewFile()
	sheets := []struct {
		name  string
		table [][]string
	}{
		{SheetClean, CleanTable(res.Headers, res.Clean)},
		{SheetQuarantine, QuarantineTable(res.Headers, res.Quarantine)},
		{SheetChangelog, ChangelogTable(res.Changelog.Entries())},
	}
	for _, s := range sheets {
		sh, err := f.AddSheet(s.name)
		if err != nil {
			return eris.Wrapf(err, "writer: add sheet %s", s.name)
		}
		for _, cells := range s.table {
			row := sh.AddRow()
			for _, v := range cells {
				row.AddCell().SetString(v)
			}
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "writer: save workbook %s", path)
	}
	return nil
}

package loader

import (
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/tealeg/xlsx/v2"
)

// sheet is one worksheet read as raw string rows.
type sheet struct {
	name string
	rows [][]string
}

// loadWorkbook reads every sheet of a workbook and picks the table to use.
func loadWorkbook(path, format string, opts Options) (*Result, error) {
	var (
		sheets []sheet
		err    error
	)
	switch format {
	case "xls":
		sheets, err = readXLS(path)
	case "ods":
		sheets, err = readODS(path)
	default:
		sheets, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, Errorf(KindUnreadableContainer, "workbook %s has no sheets", path)
	}

	res := &Result{Delimiter: ",", Format: format, SheetNames: sheetNames(sheets)}
	if err := selectSheet(res, sheets, format, opts); err != nil {
		return nil, err
	}
	return res, nil
}

func readXLSX(path string) ([]sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, wrap(KindUnreadableContainer, err, "open workbook %s", path)
	}
	sheets := make([]sheet, 0, len(f.Sheets))
	for _, s := range f.Sheets {
		rows := make([][]string, 0, len(s.Rows))
		for _, row := range s.Rows {
			rows = append(rows, rowToStrings(row))
		}
		sheets = append(sheets, sheet{name: s.Name, rows: trimTrailingRows(rows)})
	}
	return sheets, nil
}

// rowToStrings keeps formulas as "=..." text so they can be quarantined
// instead of trusting a cached result.
func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return []string{}
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		if f := cell.Formula(); f != "" {
			cells[j] = "=" + strings.TrimPrefix(f, "=")
			continue
		}
		cells[j] = cell.String()
	}
	return trimTrailing(cells)
}

func readXLS(path string) ([]sheet, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, wrap(KindUnreadableContainer, err, "open workbook %s", path)
	}
	sheets := make([]sheet, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, []string{})
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, trimTrailing(cells))
		}
		sheets = append(sheets, sheet{name: ws.Name, rows: trimTrailingRows(rows)})
	}
	return sheets, nil
}

// selectSheet fills res.Rows from one sheet, or from all of them when
// consolidating.
func selectSheet(res *Result, sheets []sheet, format string, opts Options) error {
	names := res.SheetNames

	if len(sheets) == 1 {
		res.Rows = sheets[0].rows
		res.SheetName = sheets[0].name
		return nil
	}

	if opts.Sheet != "" {
		for _, s := range sheets {
			if s.name != opts.Sheet {
				continue
			}
			res.Rows = s.rows
			res.SheetName = s.name
			var ignored []string
			for _, n := range names {
				if n != s.name {
					ignored = append(ignored, n)
				}
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("Multiple sheets found (%d total); used '%s'. Ignored: %s", len(names), s.name, pyList(ignored)))
			return nil
		}
		return Errorf(KindNotFound, "Sheet '%s' not found. Available: %s", opts.Sheet, pyList(names))
	}

	same := sameColumns(sheets)
	if opts.Consolidate {
		if !same {
			return Errorf(KindAmbiguousSelection, "Cannot consolidate workbook sheets with different columns. Available sheets: %s", pyList(names))
		}
		var rows [][]string
		for i, s := range sheets {
			if i == 0 {
				rows = append(rows, s.rows...)
				continue
			}
			if len(s.rows) > 1 {
				rows = append(rows, s.rows[1:]...)
			}
		}
		res.Rows = rows
		res.SheetName = fmt.Sprintf("[all %d sheets]", len(sheets))
		res.Warnings = append(res.Warnings, fmt.Sprintf("Consolidated %d sheets into one table.", len(sheets)))
		return nil
	}

	hint := "pass a sheet name"
	if same {
		hint += " or consolidate"
	}
	return Errorf(KindAmbiguousSelection, "Multiple sheets found in .%s workbook; %s. Available sheets: %s", format, hint, pyList(names))
}

// sameColumns reports whether every non-empty sheet starts with the same
// header row.
func sameColumns(sheets []sheet) bool {
	var first []string
	seen := false
	for _, s := range sheets {
		if len(s.rows) == 0 {
			continue
		}
		head := normalizedHeader(s.rows[0])
		if !seen {
			first, seen = head, true
			continue
		}
		if len(head) != len(first) {
			return false
		}
		for i := range head {
			if head[i] != first[i] {
				return false
			}
		}
	}
	return seen
}

func normalizedHeader(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = strings.TrimSpace(v)
	}
	return trimTrailing(out)
}

func sheetNames(sheets []sheet) []string {
	names := make([]string, len(sheets))
	for i, s := range sheets {
		names[i] = s.name
	}
	return names
}

// pyList renders names the way the CLI has always printed them: ['a', 'b'].
func pyList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func trimTrailing(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}

func trimTrailingRows(rows [][]string) [][]string {
	n := len(rows)
	for n > 0 && len(rows[n-1]) == 0 {
		n--
	}
	return rows[:n]
}

package classify

import (
	"fmt"
	"strings"

	"github.com/sells-group/sheet-doctor/internal/model"
)

// AlignSchema repairs an 8-column row whose width is off: a leading ghost
// column, a phantom empty field before Notes, unquoted commas inside Notes,
// or missing trailing fields. padded is true when fields were appended.
func AlignSchema(row []string, rowNum int) (fixed []string, change *model.Change, padded bool) {
	const width = model.SchemaWidth
	n := len(row)
	if n == width {
		return row, nil, false
	}

	if n > width {
		if strings.TrimSpace(row[0]) == "" && strings.TrimSpace(row[1]) != "" {
			fixed = append([]string(nil), row[1:width+1]...)
			return fixed, &model.Change{
				Row:      rowNum,
				Column:   model.ColumnRowStructure,
				OldValue: fmt.Sprintf("%d columns (empty leading ghost col)", n),
				NewValue: fmt.Sprintf("%d columns", width),
				Action:   model.ActionFixed,
				Reason:   "Shifted-right row: empty leading column stripped",
			}, false
		}
		if n == width+1 && strings.TrimSpace(row[width-1]) == "" && strings.TrimSpace(row[width]) != "" {
			fixed = append(append([]string(nil), row[:width-1]...), row[width])
			return fixed, &model.Change{
				Row:      rowNum,
				Column:   model.SchemaHeaders[model.ColNotes],
				OldValue: "[ghost field] + '" + row[width] + "'",
				NewValue: row[width],
				Action:   model.ActionFixed,
				Reason:   "Phantom comma: empty ghost field before Notes removed",
			}, false
		}
		merged := strings.TrimSpace(strings.Join(row[width-1:], ", "))
		fixed = append(append([]string(nil), row[:width-1]...), merged)
		return fixed, &model.Change{
			Row:      rowNum,
			Column:   model.SchemaHeaders[model.ColNotes],
			OldValue: fmt.Sprintf("%d fragments: %s...", n-width+1, quote(row[width-1])),
			NewValue: merged,
			Action:   model.ActionFixed,
			Reason:   "Unquoted commas in Notes field: fragments merged into one",
		}, false
	}

	fixed, c := pad(row, rowNum, width)
	return fixed, c, true
}

// AlignGeneric fits row to nCols, merging overflow into the last column with
// the file delimiter or padding short rows.
func AlignGeneric(row []string, rowNum, nCols int, delimiter string) (fixed []string, change *model.Change, changed bool) {
	n := len(row)
	if n == nCols || nCols < 1 {
		return row, nil, false
	}
	if n > nCols {
		var parts []string
		for _, p := range row[nCols-1:] {
			if p != "" {
				parts = append(parts, p)
			}
		}
		fixed = append(append([]string(nil), row[:nCols-1]...), strings.Join(parts, delimiter+" "))
		return fixed, &model.Change{
			Row:      rowNum,
			Column:   model.ColumnRowStructure,
			OldValue: fmt.Sprintf("%d columns", n),
			NewValue: fmt.Sprintf("%d columns", nCols),
			Action:   model.ActionFixed,
			Reason:   fmt.Sprintf("Overflow columns merged into last column using delimiter '%s'", delimiter),
		}, true
	}
	fixed, change = pad(row, rowNum, nCols)
	return fixed, change, true
}

func pad(row []string, rowNum, width int) ([]string, *model.Change) {
	missing := width - len(row)
	fixed := make([]string, width)
	copy(fixed, row)
	return fixed, &model.Change{
		Row:      rowNum,
		Column:   model.ColumnRowStructure,
		OldValue: fmt.Sprintf("%d columns", len(row)),
		NewValue: fmt.Sprintf("%d columns (%d empty field(s) appended)", width, missing),
		Action:   model.ActionFixed,
		Reason:   fmt.Sprintf("Short row padded with %d empty field(s)", missing),
	}
}

// quote renders s in single quotes, switching to double quotes when s holds
// an apostrophe.
func quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

package header

import (
	"fmt"
	"strings"

	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/normalize"
)

const (
	metadataReason   = "File Metadata: row before detected header moved out of the dataset"
	bandReason       = "Multi-row workbook header band merged into a single semantic header row"
	changeTextLength = 200
	sparseColumnFrac = 0.15
)

// Result is a preprocessed table. Rows[0] is the header; data row j (Rows[j+1])
// came from original 1-based row HeaderRow+1+j.
type Result struct {
	Rows    [][]string
	Changes []model.Change
	// HeaderIndex is the 0-based position of the header row in the input.
	HeaderIndex int
	// BandStart is the 0-based position of the first header band row.
	BandStart int
}

// HeaderRow is the original 1-based row number of the header.
func (r Result) HeaderRow() int { return r.HeaderIndex + 1 }

// DataRowNumber maps a 0-based data row position to its original row number.
func (r Result) DataRowNumber(j int) int { return r.HeaderIndex + 2 + j }

// BandRows lists the original row numbers of the header band.
func (r Result) BandRows() []int {
	var rows []int
	for i := r.BandStart; i <= r.HeaderIndex; i++ {
		rows = append(rows, i+1)
	}
	return rows
}

// MetadataRemoved counts rows moved out as file metadata.
func (r Result) MetadataRemoved() int {
	n := 0
	for _, c := range r.Changes {
		if c.Column == model.ColumnMetadata {
			n++
		}
	}
	return n
}

// BandMerged reports whether a multi-row header band was merged.
func (r Result) BandMerged() bool {
	for _, c := range r.Changes {
		if c.Column == model.ColumnHeaderBand {
			return true
		}
	}
	return false
}

// Preprocess locates the header, logs metadata rows above it, merges a
// header band and trims sparse edge columns. explicitHeaderRow is 1-based,
// 0 for automatic detection.
func Preprocess(rows [][]string, explicitHeaderRow int) Result {
	if len(rows) == 0 {
		return Result{}
	}
	headerIdx := DetectRow(rows, explicitHeaderRow)
	res := Result{HeaderIndex: headerIdx, BandStart: headerIdx}
	if headerIdx <= 0 {
		res.Rows, res.Changes = TrimSparseColumns(rows, res.HeaderRow())
		return res
	}

	res.BandStart = BandStart(rows, headerIdx)
	for i, row := range rows[:res.BandStart] {
		text := joinedText(row)
		if text == "" {
			text = "[empty metadata row]"
		}
		res.Changes = append(res.Changes, model.Change{
			Row:      i + 1,
			Column:   model.ColumnMetadata,
			OldValue: truncate(text, changeTextLength),
			Action:   model.ActionRemoved,
			Reason:   metadataReason,
		})
	}

	band := rows[res.BandStart : headerIdx+1]
	headerRow := rows[headerIdx]
	if len(band) > 1 {
		headerRow = MergeBand(band)
		var parts []string
		for _, r := range band {
			if t := joinedText(r); t != "" {
				parts = append(parts, t)
			}
		}
		var mergedParts []string
		for _, c := range headerRow {
			if c != "" {
				mergedParts = append(mergedParts, c)
			}
		}
		res.Changes = append(res.Changes, model.Change{
			Row:      res.BandStart + 1,
			Column:   model.ColumnHeaderBand,
			OldValue: truncate(strings.Join(parts, " | "), changeTextLength),
			NewValue: truncate(strings.Join(mergedParts, " | "), changeTextLength),
			Action:   model.ActionFixed,
			Reason:   bandReason,
		})
	}

	table := make([][]string, 0, len(rows)-headerIdx)
	table = append(table, headerRow)
	table = append(table, rows[headerIdx+1:]...)
	trimmed, trimChanges := TrimSparseColumns(table, res.HeaderRow())
	res.Rows = trimmed
	res.Changes = append(res.Changes, trimChanges...)
	return res
}

// TrimSparseColumns drops leading and trailing columns that have no header
// text and are filled in at most 15% of data rows. Trimmed tables come back
// padded to a uniform width.
func TrimSparseColumns(rows [][]string, headerRow int) ([][]string, []model.Change) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	if width == 0 {
		return rows, nil
	}

	padded := make([][]string, len(rows))
	for i, r := range rows {
		padded[i] = make([]string, width)
		copy(padded[i], r)
	}
	threshold := 1
	if len(padded) > 1 {
		threshold = max(1, int(float64(len(padded)-1)*sparseColumnFrac))
	}
	filled := func(col int) int {
		n := 0
		for _, r := range padded {
			if strings.TrimSpace(r[col]) != "" {
				n++
			}
		}
		return n
	}
	sparse := func(col int) bool {
		return strings.TrimSpace(padded[0][col]) == "" && filled(col) <= threshold
	}

	left := 0
	for left < width && sparse(left) {
		left++
	}
	right := width
	for right > left && sparse(right-1) {
		right--
	}
	if left == 0 && right == width {
		return rows, nil
	}

	trimmed := make([][]string, len(padded))
	for i, r := range padded {
		trimmed[i] = r[left:right]
	}
	var changes []model.Change
	if left > 0 {
		changes = append(changes, trimChange(headerRow, fmt.Sprintf("Removed %d leading sparse column(s)", left),
			"Sparse leading workbook columns removed before semantic/header detection"))
	}
	if right < width {
		changes = append(changes, trimChange(headerRow, fmt.Sprintf("Removed %d trailing sparse column(s)", width-right),
			"Sparse trailing workbook columns removed before semantic/header detection"))
	}
	return trimmed, changes
}

func trimChange(row int, old, reason string) model.Change {
	return model.Change{
		Row:      row,
		Column:   model.ColumnTrimming,
		OldValue: old,
		Action:   model.ActionFixed,
		Reason:   reason,
	}
}

// NormalizeGeneric cleans header cells, names blank headers column_N and
// suffixes case-insensitive duplicates (name_2, name_3, ...). A suffix never
// reuses a name already taken or present elsewhere in the raw header.
func NormalizeGeneric(raw []string, headerRow int) ([]string, []model.Change) {
	headers := make([]string, 0, len(raw))
	var changes []model.Change

	bases := make([]string, len(raw))
	reasonsFor := make([][]string, len(raw))
	reserved := map[string]bool{}
	for i, original := range raw {
		cleaned, reasons := normalize.CleanCell(original)
		base := normalize.CollapseSpace(cleaned)
		if base == "" {
			base = fmt.Sprintf("column_%d", i+1)
		}
		bases[i], reasonsFor[i] = base, reasons
		reserved[strings.ToLower(base)] = true
	}

	used := map[string]bool{}
	next := map[string]int{}
	for i, original := range raw {
		base, reasons := bases[i], reasonsFor[i]
		key := strings.ToLower(base)
		final := base
		if used[key] {
			n := max(next[key], 2)
			for {
				final = fmt.Sprintf("%s_%d", base, n)
				lower := strings.ToLower(final)
				if !used[lower] && !reserved[lower] {
					break
				}
				n++
			}
			next[key] = n + 1
			reasons = append(reasons, "Duplicate header renamed with suffix")
		}
		used[strings.ToLower(final)] = true
		if final != original {
			reason := "Header normalised"
			if len(reasons) > 0 {
				reason = strings.Join(reasons, "; ")
			}
			changes = append(changes, model.Change{
				Row:      headerRow,
				Column:   fmt.Sprintf("[header col %d]", i+1),
				OldValue: original,
				NewValue: final,
				Action:   model.ActionFixed,
				Reason:   reason,
			})
		}
		headers = append(headers, final)
	}
	return headers, changes
}

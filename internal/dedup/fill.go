package dedup

import (
	"strings"

	"github.com/sells-group/sheet-doctor/internal/model"
)

const (
	maxGapRows     = 5
	minOtherFilled = 2
	fillReason     = "Blank categorical cell forward-filled to repair a merged-cell style export gap"
)

// SchemaFillColumns are the canonical columns eligible for forward fill.
var SchemaFillColumns = []int{model.ColDepartment, model.ColCategory, model.ColStatus, model.ColCurrency}

// ForwardFill repairs merged-cell gaps: a run of at most five blank cells in
// a fill column, on rows that still have two other filled cells, takes the
// last value seen above it. Filled rows are marked modified and in need of
// review. It returns the number of cells filled.
func ForwardFill(rows []model.CleanRow, log *model.Changelog, headers []string, columns []int) int {
	filled := 0
	for _, col := range columns {
		last := ""
		var gap []int
		flush := func() {
			if last == "" || len(gap) == 0 || len(gap) > maxGapRows {
				return
			}
			for _, i := range gap {
				if !blank(rows[i].Cells[col]) {
					continue
				}
				rows[i].Fill(log, col, model.ColumnLabel(headers, col), last, fillReason)
				filled++
			}
		}

		for i := range rows {
			if col >= len(rows[i].Cells) {
				gap = nil
				continue
			}
			value := strings.TrimSpace(rows[i].Cells[col])
			if value != "" {
				flush()
				last = value
				gap = nil
				continue
			}
			if last != "" && otherFilled(rows[i].Cells, col) >= minOtherFilled {
				gap = append(gap, i)
			} else {
				gap = nil
			}
		}
		flush()
	}
	return filled
}

func otherFilled(cells []string, skip int) int {
	n := 0
	for j, c := range cells {
		if j != skip && !blank(c) {
			n++
		}
	}
	return n
}

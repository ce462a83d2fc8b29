// Package dedup removes exact duplicate rows, flags near duplicates and
// repairs merged-cell gaps in accepted rows.
package dedup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/sheet-doctor/internal/model"
)

// Key is the canonical row key: the full tuple of cell values.
func Key(row []string) string {
	var b strings.Builder
	for _, cell := range row {
		b.WriteString(strconv.Itoa(len(cell)))
		b.WriteByte(':')
		b.WriteString(cell)
	}
	return b.String()
}

// Index remembers the first row number of every canonical key.
type Index struct {
	first map[string]int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{first: map[string]int{}}
}

// Seen returns the row number that first carried row. When row is new it is
// recorded under rowNum and Seen reports false.
func (x *Index) Seen(row []string, rowNum int) (int, bool) {
	key := Key(row)
	if first, ok := x.first[key]; ok {
		return first, true
	}
	x.first[key] = rowNum
	return 0, false
}

// Len is the number of distinct rows recorded.
func (x *Index) Len() int { return len(x.first) }

// Removed is the changelog entry for a dropped exact duplicate.
func Removed(rowNum, firstRow int, label string) model.Change {
	return model.Change{
		Row:      rowNum,
		Column:   model.ColumnRow,
		OldValue: label,
		Action:   model.ActionRemoved,
		Reason:   fmt.Sprintf("Exact duplicate of row %d", firstRow),
	}
}

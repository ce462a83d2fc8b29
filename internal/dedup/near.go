package dedup

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/normalize"
)

// nearWindowDays is the widest date gap still treated as a near duplicate.
const nearWindowDays = 2

var identityRoles = []model.Role{
	model.RoleName,
	model.RoleAmount,
	model.RoleCurrency,
	model.RoleCategory,
	model.RoleDepartment,
}

// NearKey describes which columns identify a row for near-duplicate
// detection and how flags are worded.
type NearKey struct {
	Columns  []int
	DateIdx  int
	LabelIdx int
	// Describes the shared columns in the flag reason.
	Describes string
}

// SchemaNearKey keys canonical rows on Name, Amount, Currency and Category.
func SchemaNearKey() NearKey {
	return NearKey{
		Columns:   []int{model.ColName, model.ColAmount, model.ColCurrency, model.ColCategory},
		DateIdx:   model.ColDate,
		LabelIdx:  model.ColName,
		Describes: "same Name/Amount/Currency/Category",
	}
}

// SemanticNearKey keys rows on the identity roles of a plan. It needs both a
// date and an amount column and at least two identity columns.
func SemanticNearKey(roles map[int]model.Role, dateIdx, amountIdx, labelIdx int) (NearKey, bool) {
	if dateIdx < 0 || amountIdx < 0 {
		return NearKey{}, false
	}
	var cols []int
	for idx, role := range roles {
		if slices.Contains(identityRoles, role) {
			cols = append(cols, idx)
		}
	}
	if len(cols) < 2 {
		return NearKey{}, false
	}
	slices.Sort(cols)
	return NearKey{
		Columns:   cols,
		DateIdx:   dateIdx,
		LabelIdx:  labelIdx,
		Describes: "same semantic key columns",
	}, true
}

func (k NearKey) identity(row []string) string {
	parts := make([]string, len(k.Columns))
	for i, c := range k.Columns {
		parts[i] = cellAt(row, c)
	}
	return Key(parts)
}

// FlagNearDuplicates compares every accepted row with the first earlier row
// sharing its identity. When both dates are ISO and at most two days apart,
// both rows are flagged for review with a cross-referencing entry each.
// It returns the number of pairs flagged.
func FlagNearDuplicates(rows []model.CleanRow, log *model.Changelog, key NearKey) int {
	first := map[string]int{}
	pairs := 0
	for i := range rows {
		id := key.identity(rows[i].Cells)
		j, ok := first[id]
		if !ok {
			first[id] = i
			continue
		}
		prev, cur := &rows[j], &rows[i]
		d1, d2 := cellAt(prev.Cells, key.DateIdx), cellAt(cur.Cells, key.DateIdx)
		if !normalize.IsISODate(d1) || !normalize.IsISODate(d2) {
			continue
		}
		delta, ok := normalize.DaysBetween(d1, d2)
		if !ok || delta > nearWindowDays {
			continue
		}
		cur.FlagForReview(log, model.ColumnRow, cellAt(cur.Cells, key.LabelIdx), key.reason(d2, delta, prev.Row, d1))
		prev.FlagForReview(log, model.ColumnRow, cellAt(prev.Cells, key.LabelIdx), key.reason(d1, delta, cur.Row, d2))
		pairs++
	}
	return pairs
}

func (k NearKey) reason(date string, delta, otherRow int, otherDate string) string {
	return fmt.Sprintf("Near-duplicate: %s; date %s differs by %d day(s) from row %d (%s)",
		k.Describes, date, delta, otherRow, otherDate)
}

func cellAt(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return row[i]
	}
	return ""
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

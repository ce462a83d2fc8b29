package normalize

import (
	"sort"

	"github.com/sells-group/sheet-doctor/internal/model"
)

// Func is the common shape of the field normalizers. Unparseable input
// returns the original value with changed=false.
type Func func(value string) (result string, changed bool, reason string)

// ApplySchema runs the canonical-schema field repairs over an 8-column row.
func ApplySchema(row []string, rowNum int) ([]string, []model.Change) {
	row, changes := SplitAmountCurrency(row, rowNum, model.SchemaHeaders, model.ColAmount, model.ColCurrency)

	fix := func(idx int, fn Func) {
		orig := row[idx]
		if result, changed, reason := fn(orig); changed {
			row[idx] = result
			changes = append(changes, fixed(rowNum, model.SchemaHeaders[idx], orig, result, reason))
		}
	}
	fix(model.ColDate, Date)
	fix(model.ColAmount, Amount)
	fix(model.ColCurrency, Currency)
	fix(model.ColName, Name)
	fix(model.ColStatus, Status)
	fix(model.ColDepartment, Department)
	fix(model.ColCategory, Category)
	return row, changes
}

// ApplyRoles normalizes each cell according to its assigned role. Roles are
// visited in column order so the changelog is deterministic.
func ApplyRoles(row []string, rowNum int, headers []string, roles map[int]model.Role, amountIdx, currencyIdx int) ([]string, []model.Change) {
	row, changes := SplitAmountCurrency(row, rowNum, headers, amountIdx, currencyIdx)

	idxs := make([]int, 0, len(roles))
	for idx := range roles {
		if idx < len(row) {
			idxs = append(idxs, idx)
		}
	}
	sort.Ints(idxs)

	for _, idx := range idxs {
		fn := roleFunc(roles[idx])
		if fn == nil {
			continue
		}
		orig := row[idx]
		if result, changed, reason := fn(orig); changed {
			row[idx] = result
			changes = append(changes, fixed(rowNum, model.ColumnLabel(headers, idx), orig, result, reason))
		}
	}
	return row, changes
}

func roleFunc(role model.Role) Func {
	switch role {
	case model.RoleDate:
		return Date
	case model.RoleAmount:
		return Amount
	case model.RoleCurrency:
		return Currency
	case model.RoleName:
		return Name
	case model.RoleStatus:
		return Status
	case model.RoleIdentifier:
		return spacing("Identifier spacing normalised")
	case model.RoleMeasurement:
		return spacing("Measurement text spacing normalised")
	case model.RoleDepartment:
		return titled("Department title-cased")
	case model.RoleCategory:
		return titled("Category title-cased")
	}
	return nil
}

func spacing(reason string) Func {
	return func(value string) (string, bool, string) {
		result := CollapseSpace(value)
		return result, result != value, reason
	}
}

func titled(reason string) Func {
	return func(value string) (string, bool, string) {
		result := TitleCase(CollapseSpace(value))
		return result, result != value, reason
	}
}

func fixed(rowNum int, column, old, result, reason string) model.Change {
	return model.Change{
		Row:      rowNum,
		Column:   column,
		OldValue: old,
		NewValue: result,
		Action:   model.ActionFixed,
		Reason:   reason,
	}
}

package semantic

import (
	"math"
	"slices"
	"sort"

	"github.com/sells-group/sheet-doctor/internal/classify"
	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/normalize"
	"github.com/sells-group/sheet-doctor/internal/profile"
)

// DefaultPreviewRows bounds the rows profiled before role assignment.
const DefaultPreviewRows = 1000

var thresholds = map[model.Role]float64{
	model.RoleIdentifier:  0.60,
	model.RoleName:        0.60,
	model.RoleDate:        0.60,
	model.RoleAmount:      0.60,
	model.RoleMeasurement: 0.60,
	model.RoleCurrency:    0.60,
	model.RoleStatus:      0.72,
	model.RoleDepartment:  0.72,
	model.RoleCategory:    0.72,
	model.RoleNotes:       0.72,
}

// uniqueTypeRoles fills a still-missing role from the only untaken column of
// a matching type, in this order.
var uniqueTypeRoles = []struct {
	role    model.Role
	typ     model.AtomicType
	minimum float64
}{
	{model.RoleIdentifier, model.TypeID, 0.58},
	{model.RoleName, model.TypeName, 0.58},
	{model.RoleDate, model.TypeDate, 0.58},
	{model.RoleAmount, model.TypeAmount, 0.58},
	{model.RoleCurrency, model.TypeCurrency, 0.58},
	{model.RoleNotes, model.TypeFreeText, 0.55},
}

var (
	amountPartners = []model.Role{model.RoleName, model.RoleDate, model.RoleCurrency, model.RoleStatus, model.RoleDepartment, model.RoleCategory}
	broadRoles     = []model.Role{model.RoleIdentifier, model.RoleName, model.RoleDate, model.RoleStatus, model.RoleDepartment, model.RoleCategory, model.RoleNotes, model.RoleMeasurement}
	anchorRoles    = []model.Role{model.RoleIdentifier, model.RoleDate, model.RoleMeasurement}
	labelRoles     = []model.Role{model.RoleName, model.RoleIdentifier, model.RoleDepartment, model.RoleCategory, model.RoleNotes}
	fillDownRoles  = []model.Role{model.RoleDepartment, model.RoleCategory, model.RoleStatus, model.RoleCurrency}
)

// Plan is an immutable column-to-role mapping. A disabled plan carries no
// roles and every index accessor reports -1.
type Plan struct {
	enabled     bool
	roles       map[int]model.Role
	confidence  map[int]float64
	labelIdx    int
	amountIdx   int
	currencyIdx int
	dateIdx     int
	fillDown    []int
}

// Disabled returns the plan used when semantic mode does not apply.
func Disabled() *Plan {
	return &Plan{
		roles:       map[int]model.Role{},
		confidence:  map[int]float64{},
		amountIdx:   -1,
		currencyIdx: -1,
		dateIdx:     -1,
	}
}

// Enabled reports whether the assigned roles are diverse enough for
// semantic mode.
func (p *Plan) Enabled() bool { return p.enabled }

// Role returns the role assigned to column idx.
func (p *Plan) Role(idx int) (model.Role, bool) {
	r, ok := p.roles[idx]
	return r, ok
}

// Roles returns a copy of the column-to-role mapping.
func (p *Plan) Roles() map[int]model.Role {
	out := make(map[int]model.Role, len(p.roles))
	for k, v := range p.roles {
		out[k] = v
	}
	return out
}

// Confidence returns the assignment confidence for column idx, 0 if none.
func (p *Plan) Confidence(idx int) float64 { return p.confidence[idx] }

// Indexes returns the assigned column indexes in ascending order.
func (p *Plan) Indexes() []int {
	idx := make([]int, 0, len(p.roles))
	for i := range p.roles {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// LabelIdx is the column used to identify a row in the changelog.
func (p *Plan) LabelIdx() int { return p.labelIdx }

// AmountIdx is the amount column, or -1.
func (p *Plan) AmountIdx() int { return p.amountIdx }

// CurrencyIdx is the currency column, or -1.
func (p *Plan) CurrencyIdx() int { return p.currencyIdx }

// DateIdx is the date column, or -1.
func (p *Plan) DateIdx() int { return p.dateIdx }

// FillDown returns the forward-fill candidate columns in ascending order.
func (p *Plan) FillDown() []int { return slices.Clone(p.fillDown) }

// BuildPlan profiles up to previewRows data rows and assigns roles. Data
// rows are aligned and cleaned the same way the main pass will see them.
// overrides maps 0-based column indexes to a role or model.RoleIgnore.
func BuildPlan(headers []string, dataRows [][]string, delimiter string, overrides map[int]model.Role, previewRows int) *Plan {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}
	preview := make([][]string, 0, min(previewRows, len(dataRows)))
	label := func(i int) string { return model.ColumnLabel(headers, i) }
	for j, raw := range dataRows[:min(previewRows, len(dataRows))] {
		aligned, _, _ := classify.AlignGeneric(raw, j+2, len(headers), delimiter)
		cleaned, _ := normalize.CleanRow(aligned, j+2, label)
		preview = append(preview, cleaned)
	}
	if len(preview) == 0 {
		return Disabled()
	}
	report := profile.Analyse(headers, preview)
	return Assign(headers, report.Columns, overrides)
}

// Assign turns column profiles into a plan. columns[i] profiles headers[i].
func Assign(headers []string, columns []profile.Column, overrides map[int]model.Role) *Plan {
	scores := make([]map[model.Role]float64, len(headers))
	for i, h := range headers {
		var col profile.Column
		if i < len(columns) {
			col = columns[i]
		}
		scores[i] = Scores(h, col)
	}
	detected := func(i int) model.AtomicType {
		if i < len(columns) {
			return columns[i].DetectedType
		}
		return ""
	}

	assigned := map[int]model.Role{}
	confidence := map[int]float64{}
	take := func(idx int, role model.Role, score float64) {
		assigned[idx] = role
		confidence[idx] = round2(score)
	}
	hasRole := func(role model.Role) bool {
		for _, r := range assigned {
			if r == role {
				return true
			}
		}
		return false
	}

	for _, role := range model.Roles {
		bestIdx, best := -1, 0.0
		for i := range headers {
			if _, taken := assigned[i]; taken {
				continue
			}
			if s := scores[i][role]; s > best {
				bestIdx, best = i, s
			}
		}
		if bestIdx >= 0 && best >= thresholds[role] {
			take(bestIdx, role, best)
		}
	}

	for _, u := range uniqueTypeRoles {
		if hasRole(u.role) {
			continue
		}
		var candidates []int
		for i := range headers {
			if _, taken := assigned[i]; !taken && detected(i) == u.typ {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 1 {
			if s := scores[candidates[0]][u.role]; s >= u.minimum {
				take(candidates[0], u.role, s)
			}
		}
	}

	for i := range headers {
		if _, taken := assigned[i]; taken {
			continue
		}
		if s := scores[i][model.RoleMeasurement]; s >= thresholds[model.RoleMeasurement] {
			take(i, model.RoleMeasurement, s)
		}
	}

	for _, idx := range sortedKeys(overrides) {
		role := overrides[idx]
		if idx < 0 || idx >= len(headers) {
			continue
		}
		delete(assigned, idx)
		delete(confidence, idx)
		if role == model.RoleIgnore {
			continue
		}
		for other, r := range assigned {
			if r == role {
				delete(assigned, other)
				delete(confidence, other)
			}
		}
		assigned[idx] = role
		confidence[idx] = 1.0
	}

	if !diverse(assigned) {
		return Disabled()
	}

	plan := &Plan{
		enabled:     true,
		roles:       assigned,
		confidence:  confidence,
		amountIdx:   -1,
		currencyIdx: -1,
		dateIdx:     -1,
	}
	plan.labelIdx = max(0, firstIndexOf(assigned, labelRoles...))
	plan.amountIdx = firstIndexOf(assigned, model.RoleAmount)
	plan.currencyIdx = firstIndexOf(assigned, model.RoleCurrency)
	plan.dateIdx = firstIndexOf(assigned, model.RoleDate)
	for _, idx := range plan.Indexes() {
		if slices.Contains(fillDownRoles, assigned[idx]) {
			plan.fillDown = append(plan.fillDown, idx)
		}
	}
	return plan
}

// diverse is the bar semantic mode must clear: an amount with two partner
// roles, or three broad roles anchored by an identifier, date or
// measurement.
func diverse(assigned map[int]model.Role) bool {
	present := map[model.Role]bool{}
	for _, r := range assigned {
		present[r] = true
	}
	count := func(roles []model.Role) int {
		n := 0
		for _, r := range roles {
			if present[r] {
				n++
			}
		}
		return n
	}
	if present[model.RoleAmount] && count(amountPartners) >= 2 {
		return true
	}
	return count(broadRoles) >= 3 && count(anchorRoles) > 0
}

// firstIndexOf returns the lowest column holding the first of roles that is
// assigned at all, or -1.
func firstIndexOf(assigned map[int]model.Role, roles ...model.Role) int {
	keys := sortedKeys(assigned)
	for _, role := range roles {
		for _, idx := range keys {
			if assigned[idx] == role {
				return idx
			}
		}
	}
	return -1
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

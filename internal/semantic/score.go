// Package semantic maps generic columns to business roles. Role scores
// combine the profiled column type with keyword hints found in the header
// text, and a greedy pass turns them into an immutable Plan.
package semantic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/normalize"
	"github.com/sells-group/sheet-doctor/internal/profile"
)

const maxScore = 0.99

// HeaderHints lists the keyword fragments that suggest each role. Matching is
// substring based on the lowercased, punctuation-folded header.
var HeaderHints = map[model.Role][]string{
	model.RoleIdentifier:  {"id", "code", "study id", "study_id", "pat_id", "patient id", "subject id", "record id"},
	model.RoleName:        {"name", "person", "contact"},
	model.RoleDate:        {"date", "dated", "txn date", "transaction", "invoice date", "posted", "dob", "dofb"},
	model.RoleAmount:      {"amount", "cost", "price", "value", "expense", "spend", "salary", "pay", "total"},
	model.RoleMeasurement: {"bp", "hr", "gfr", "glucose", "weight", "height", "score", "rate", "result", "reading", "pre", "post"},
	model.RoleCurrency:    {"currency", "curr", "fx", "ccy"},
	model.RoleStatus:      {"status", "state", "approval", "approved", "decision"},
	model.RoleDepartment:  {"department", "dept", "division", "team", "unit", "function", "ward", "location", "clinic"},
	model.RoleCategory:    {"category", "type", "class", "group", "bucket", "expense type", "race", "sex", "ethnicity", "hispanic", "diagnosis", "sediment"},
	model.RoleNotes:       {"notes", "note", "comment", "comments", "description", "details", "memo", "remarks"},
}

// typeWeights is the evidence a detected column type lends each role.
var typeWeights = map[model.AtomicType]map[model.Role]float64{
	model.TypeName:        {model.RoleName: 0.45},
	model.TypeDate:        {model.RoleDate: 0.72},
	model.TypeID:          {model.RoleIdentifier: 0.72},
	model.TypeAmount:      {model.RoleAmount: 0.72, model.RoleMeasurement: 0.24},
	model.TypeNumber:      {model.RoleAmount: 0.42, model.RoleMeasurement: 0.45},
	model.TypePercentage:  {model.RoleMeasurement: 0.35},
	model.TypeCurrency:    {model.RoleCurrency: 0.72},
	model.TypeBoolean:     {model.RoleStatus: 0.20},
	model.TypeCategorical: {model.RoleStatus: 0.12, model.RoleDepartment: 0.12, model.RoleCategory: 0.12},
	model.TypeFreeText:    {model.RoleNotes: 0.20},
}

var (
	headerFoldRe     = regexp.MustCompile(`[^a-z0-9]+`)
	idWordRe         = regexp.MustCompile(`\b(id|code)\b`)
	nameWordRe       = regexp.MustCompile(`\bname\b`)
	departmentWordRe = regexp.MustCompile(`\b(ward|clinic|division|department|dept|team|unit|function|location)\b`)
	calendarPartRe   = regexp.MustCompile(`\b(month|day|year)\b`)
	fullDateWordRe   = regexp.MustCompile(`\b(date|dob|dofb)\b`)
)

// nameBlockers are roles whose header hints rule out a person-name column.
var nameBlockers = []model.Role{
	model.RoleIdentifier,
	model.RoleMeasurement,
	model.RoleDepartment,
	model.RoleCategory,
	model.RoleStatus,
	model.RoleDate,
}

func headerText(header string) string {
	folded := headerFoldRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(header)), " ")
	return strings.TrimSpace(folded)
}

// HeaderMatches reports whether header carries a keyword hint for role.
func HeaderMatches(header string, role model.Role) bool {
	text := headerText(header)
	for _, hint := range HeaderHints[role] {
		if strings.Contains(text, hint) {
			return true
		}
	}
	return false
}

// statusLike reports whether at least half of the most common values are
// status keywords.
func statusLike(col profile.Column) bool {
	var values []string
	for _, vc := range col.MostCommonValues {
		if v := strings.TrimSpace(vc.Value); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return false
	}
	hits := 0
	for _, v := range values {
		if normalize.IsStatusHint(v) {
			hits++
		}
	}
	return hits >= max(1, len(values)/2)
}

func averageSampleLength(col profile.Column) float64 {
	total, n := 0, 0
	for _, s := range col.SampleValues {
		if s == "" {
			continue
		}
		total += utf8.RuneCountInString(s)
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// Scores rates how well a column fits every role, each in [0, 0.99].
func Scores(header string, col profile.Column) map[model.Role]float64 {
	text := headerText(header)
	scores := make(map[model.Role]float64, len(model.Roles))
	for _, role := range model.Roles {
		scores[role] = typeWeights[col.DetectedType][role]
	}

	for _, role := range model.Roles {
		if !HeaderMatches(header, role) {
			continue
		}
		switch role {
		case model.RoleIdentifier:
			scores[role] += strongOr(idWordRe.MatchString(text))
		case model.RoleName:
			scores[role] += strongOr(nameWordRe.MatchString(text))
		case model.RoleDepartment:
			scores[role] += strongOr(departmentWordRe.MatchString(text))
		case model.RoleDate, model.RoleAmount:
			scores[role] += 0.32
		case model.RoleMeasurement:
			scores[role] += 0.72
		default:
			scores[role] += 0.68
		}
	}

	if statusLike(col) {
		scores[model.RoleStatus] += 0.28
	}
	if col.DetectedType == model.TypeFreeText && averageSampleLength(col) >= 20 {
		scores[model.RoleNotes] += 0.12
	}

	if !HeaderMatches(header, model.RoleName) {
		for _, blocker := range nameBlockers {
			if HeaderMatches(header, blocker) {
				scores[model.RoleName] = min(scores[model.RoleName], 0.40)
				break
			}
		}
	}
	if calendarPartRe.MatchString(text) && !fullDateWordRe.MatchString(text) {
		scores[model.RoleDate] = min(scores[model.RoleDate], 0.40)
	}
	if HeaderMatches(header, model.RoleMeasurement) {
		scores[model.RoleNotes] = min(scores[model.RoleNotes], 0.20)
	}

	for role, s := range scores {
		scores[role] = min(s, maxScore)
	}
	return scores
}

func strongOr(strong bool) float64 {
	if strong {
		return 0.82
	}
	return 0.68
}

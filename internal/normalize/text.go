package normalize

import (
	"strings"
	"unicode"
)

// StatusCanon maps lowercase status spellings to their canonical form.
var StatusCanon = map[string]string{
	"approved":       "Approved",
	"approve":        "Approved",
	"rejected":       "Rejected",
	"reject":         "Rejected",
	"pending":        "Pending",
	"pending review": "Pending",
}

// IsStatusHint reports whether s is a known status spelling.
func IsStatusHint(s string) bool {
	_, ok := StatusCanon[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// TitleCase upper-cases the first cased letter of every run of cased letters
// and lower-cases the rest, so "o'NEIL" becomes "O'Neil".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		cased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		switch {
		case cased && prevCased:
			b.WriteRune(unicode.ToLower(r))
		case cased:
			b.WriteRune(unicode.ToTitle(r))
		default:
			b.WriteRune(r)
		}
		prevCased = cased
	}
	return b.String()
}

// Name collapses whitespace, reorders "Last, First" and title-cases.
func Name(value string) (string, bool, string) {
	collapsed := CollapseSpace(value)
	if collapsed == "" {
		return collapsed, false, ""
	}
	v := collapsed
	swapped := false
	// Only a single comma reads as "Last, First"; "Doe, John, Jr" is left alone.
	if strings.Count(v, ",") == 1 {
		last, first, _ := strings.Cut(v, ",")
		last, first = strings.TrimSpace(last), strings.TrimSpace(first)
		if first != "" && last != "" {
			v = first + " " + last
			swapped = true
		}
	}
	result := TitleCase(v)

	var reasons []string
	if collapsed != value {
		reasons = append(reasons, "extra whitespace collapsed")
	}
	if swapped {
		reasons = append(reasons, "Last, First \u2192 First Last")
	}
	if result != value && len(reasons) == 0 {
		reasons = append(reasons, "name title-cased")
	}
	reason := "Name title-cased"
	if len(reasons) > 0 {
		reason = "Name normalised: " + strings.Join(reasons, "; ")
	}
	return result, result != value, reason
}

// Status maps approval spellings to Approved/Rejected/Pending and title-cases
// anything else.
func Status(value string) (string, bool, string) {
	v := strings.TrimSpace(value)
	result, ok := StatusCanon[strings.ToLower(v)]
	if !ok {
		result = TitleCase(v)
	}
	if result == v {
		return result, false, ""
	}
	return result, true, "Status '" + v + "' standardised to canonical form"
}

// Department collapses whitespace and title-cases.
func Department(value string) (string, bool, string) {
	result := TitleCase(CollapseSpace(value))
	return result, result != value, "Department title-cased"
}

// Category trims and title-cases.
func Category(value string) (string, bool, string) {
	result := TitleCase(strings.TrimSpace(value))
	return result, result != value, "Category title-cased"
}

package normalize

import "strings"

var reviewTokens = map[string]bool{
	"nan": true, "null": true, "n/a": true, "na": true,
	"not applicable": true, "none": true, "inf": true,
}

// NeedsReviewSchema flags a canonical-schema row with a blank amount, a date
// that did not normalize, or padded structure.
func NeedsReviewSchema(row []string, amountIdx, dateIdx int, padded bool) bool {
	if amountIdx < len(row) && row[amountIdx] == "" {
		return true
	}
	if dateIdx < len(row) {
		if d := row[dateIdx]; d != "" && !IsISODate(d) {
			return true
		}
	}
	return padded
}

// NeedsReviewSemantic flags rows whose structure changed, whose amount is
// blank, whose date did not normalize, or which still carry placeholder
// tokens. Negative indexes mean the role is absent.
func NeedsReviewSemantic(row []string, structureChanged bool, amountIdx, dateIdx int) bool {
	if structureChanged {
		return true
	}
	if amountIdx >= 0 && amountIdx < len(row) && strings.TrimSpace(row[amountIdx]) == "" {
		return true
	}
	if dateIdx >= 0 && dateIdx < len(row) {
		if d := strings.TrimSpace(row[dateIdx]); d != "" && !IsISODate(d) {
			return true
		}
	}
	return hasReviewToken(row)
}

// NeedsReviewGeneric flags structural repairs and placeholder tokens.
func NeedsReviewGeneric(row []string, structureChanged bool) bool {
	return structureChanged || hasReviewToken(row)
}

func hasReviewToken(row []string) bool {
	for _, cell := range row {
		if reviewTokens[strings.ToLower(strings.TrimSpace(cell))] {
			return true
		}
	}
	return false
}

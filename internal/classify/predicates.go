// Package classify labels raw rows NORMAL or with a quarantine class and
// repairs row structure for accepted rows.
package classify

import (
	"regexp"
	"strings"

	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/normalize"
)

var (
	formulaRe      = regexp.MustCompile(`^\s*=`)
	totalLabelRe   = regexp.MustCompile(`(?i)\b(grand\s+total|subtotal|sub-total|total|sum)\b`)
	leadingTotalRe = regexp.MustCompile(`(?i)^(grand\s+total|subtotal|total)\b`)
	notesKeywordRe = regexp.MustCompile(`(?i)\b(approved|manager|note|comment|memo|generated|report|expense|expenses)\b`)
	longWordRe     = regexp.MustCompile(`[A-Za-z]{4,}`)
)

const (
	notesMinLength    = 50
	notesMinWordCount = 8
)

// NonEmpty returns the trimmed non-blank cells of row with NUL bytes removed.
func NonEmpty(row []string) []string {
	var cells []string
	for _, c := range row {
		if v := strings.TrimSpace(strings.ReplaceAll(c, "\x00", "")); v != "" {
			cells = append(cells, v)
		}
	}
	return cells
}

// IsFormula reports whether a cell holds formula text such as "=SUM(A1:A3)".
func IsFormula(value string) bool {
	return formulaRe.MatchString(strings.TrimSpace(strings.ReplaceAll(value, "\x00", "")))
}

// FormulaColumn returns the label of the first column holding formula text.
func FormulaColumn(row, headers []string) (string, bool) {
	for i, c := range row {
		if IsFormula(c) {
			return model.ColumnLabel(headers, i), true
		}
	}
	return "", false
}

// IsTotalLabel reports whether text names a total, subtotal or sum.
func IsTotalLabel(text string) bool {
	return totalLabelRe.MatchString(text)
}

// LooksLikeNotesRow matches a single long prose cell.
func LooksLikeNotesRow(row []string) bool {
	cells := NonEmpty(row)
	if len(cells) != 1 {
		return false
	}
	text := cells[0]
	if len([]rune(text)) <= notesMinLength || len(strings.Fields(text)) < notesMinWordCount {
		return false
	}
	return notesKeywordRe.MatchString(text) || longWordRe.MatchString(text)
}

// AmountTotalish reports whether a total-labelled row carries an amount within
// max(1.0, 2%) of the running total of accepted rows.
func AmountTotalish(label, amount string, runningTotal float64) bool {
	if !IsTotalLabel(label) {
		return false
	}
	v, ok := normalize.ParseAmountLike(amount)
	if !ok {
		return false
	}
	tolerance := max(1.0, abs(runningTotal)*0.02)
	return abs(v-runningTotal) <= tolerance
}

// SparseTotalRow reports a total-labelled row holding a parseable amount and
// at most one other filled cell.
func SparseTotalRow(row []string, labelIdx, amountIdx int) bool {
	if !IsTotalLabel(cell(row, labelIdx)) {
		return false
	}
	if _, ok := normalize.ParseAmountLike(cell(row, amountIdx)); !ok {
		return false
	}
	filled := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			filled++
		}
	}
	return filled <= 2
}

func cell(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return row[i]
	}
	return ""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

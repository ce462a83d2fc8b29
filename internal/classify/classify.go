package classify

import (
	"strings"

	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/normalize"
)

// Signature is the case-folded header used to spot repeated header rows.
type Signature []string

// NewSignature folds headers for comparison.
func NewSignature(headers []string) Signature {
	sig := make(Signature, len(headers))
	for i, h := range headers {
		sig[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return sig
}

func (s Signature) matches(stripped []string) bool {
	if len(stripped) != len(s) {
		return false
	}
	for i, c := range stripped {
		if strings.ToLower(c) != s[i] {
			return false
		}
	}
	return true
}

// Schema classifies a raw row against the canonical schema. A total-labelled
// row with a parseable amount is left NORMAL so the subtotal check can judge
// it after repair.
func Schema(row []string, sig Signature) model.RowClass {
	stripped, class, done := common(row, sig)
	if done {
		return class
	}
	if len(stripped) > model.ColAmount && IsTotalLabel(stripped[0]) {
		if _, ok := normalize.ParseAmountLike(stripped[model.ColAmount]); ok {
			return model.ClassNormal
		}
	}
	if float64(countFilled(stripped)) < model.SchemaWidth*model.SparseThresholdSchema {
		return model.ClassSparse
	}
	return model.ClassNormal
}

// Generic classifies a raw row for a table of nCols columns.
func Generic(row []string, sig Signature, nCols int) model.RowClass {
	stripped, class, done := common(row, sig)
	if done {
		return class
	}
	filled := countFilled(stripped)
	first := ""
	for _, c := range stripped {
		if c != "" {
			first = c
			break
		}
	}
	if leadingTotalRe.MatchString(first) && filled <= max(2, nCols/3) {
		return model.ClassStructuralTotal
	}
	if filled < max(1, int(float64(nCols)*model.SparseThresholdGeneric)) {
		return model.ClassSparse
	}
	return model.ClassNormal
}

// common runs the checks both modes share, in order: empty, whitespace,
// repeated header, notes, formula.
func common(row []string, sig Signature) ([]string, model.RowClass, bool) {
	stripped := make([]string, len(row))
	blank, literal := true, true
	for i, c := range row {
		stripped[i] = strings.TrimSpace(c)
		if stripped[i] != "" {
			blank = false
		}
		if c != "" {
			literal = false
		}
	}
	switch {
	case blank && literal:
		return stripped, model.ClassEmpty, true
	case blank:
		return stripped, model.ClassWhitespace, true
	case sig.matches(stripped):
		return stripped, model.ClassStructuralHeader, true
	case LooksLikeNotesRow(row):
		return stripped, model.ClassNotesRow, true
	}
	for _, c := range stripped {
		if IsFormula(c) {
			return stripped, model.ClassFormula, true
		}
	}
	return stripped, model.ClassNormal, false
}

func countFilled(stripped []string) int {
	n := 0
	for _, c := range stripped {
		if c != "" {
			n++
		}
	}
	return n
}

// Quarantine builds the quarantine record and its changelog entry for a
// rejected raw row. Cells are trimmed and fitted to the header width.
func Quarantine(row []string, rowNum int, class model.RowClass, mode model.Mode, headers []string) (model.QuarantineRow, model.Change) {
	cells := make([]string, len(headers))
	for i := 0; i < len(cells) && i < len(row); i++ {
		cells[i] = strings.TrimSpace(row[i])
	}

	display := "[empty]"
	for _, c := range cells {
		if c != "" {
			display = c
			break
		}
	}
	if r := []rune(display); len(r) > 60 {
		display = string(r[:60])
	}

	column, reason := model.ColumnRow, class.ReasonText(mode)
	if class == model.ClassFormula {
		column = "formula_residue"
		if label, ok := FormulaColumn(row, headers); ok {
			column = label
		}
		reason = model.FormulaChangeReason
	}

	q := model.QuarantineRow{Cells: cells, Row: rowNum, Class: class, Reason: class.ReasonText(mode)}
	return q, model.Change{
		Row:      rowNum,
		Column:   column,
		OldValue: display,
		Action:   model.ActionQuarantined,
		Reason:   reason,
	}
}

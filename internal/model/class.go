package model

import "fmt"

// RowClass is the terminal label RowClassifier assigns to a raw row.
// Every class except ClassNormal is a quarantine reason.
type RowClass string

const (
	ClassNormal             RowClass = "NORMAL"
	ClassEmpty              RowClass = "EMPTY"
	ClassWhitespace         RowClass = "WHITESPACE"
	ClassStructuralHeader   RowClass = "STRUCTURAL_HEADER"
	ClassStructuralTotal    RowClass = "STRUCTURAL_TOTAL"
	ClassCalculatedSubtotal RowClass = "CALCULATED_SUBTOTAL"
	ClassNotesRow           RowClass = "NOTES_ROW"
	ClassFormula            RowClass = "FORMULA"
	ClassSparse             RowClass = "SPARSE"
)

// Sparse fill thresholds.
const (
	SparseThresholdSchema  = 0.50
	SparseThresholdGeneric = 0.25
)

var schemaReasons = map[RowClass]string{
	ClassEmpty:              "Completely empty row",
	ClassWhitespace:         "Row is all whitespace",
	ClassStructuralHeader:   "Structural row (TOTAL/subtotal/header repeat)",
	ClassStructuralTotal:    "Structural row (TOTAL/subtotal/header repeat)",
	ClassCalculatedSubtotal: "Calculated subtotal row",
	ClassNotesRow:           "Appears to be a notes row",
	ClassFormula:            "Excel formula found, not data",
	ClassSparse:             fmt.Sprintf("Less than %d%% columns filled", int(SparseThresholdSchema*100)),
}

var genericReasons = map[RowClass]string{
	ClassEmpty:              "Completely empty row",
	ClassWhitespace:         "Row is all whitespace",
	ClassStructuralHeader:   "Structural row (header repeated)",
	ClassStructuralTotal:    "Structural row (TOTAL/subtotal)",
	ClassCalculatedSubtotal: "Calculated subtotal row",
	ClassNotesRow:           "Appears to be a notes row",
	ClassFormula:            "Excel formula found, not data",
	ClassSparse:             fmt.Sprintf("Less than %d%% columns filled", int(SparseThresholdGeneric*100)),
}

// FormulaChangeReason is the changelog reason used for formula quarantines.
const FormulaChangeReason = "formula_residue: Excel formula found, not data"

// Quarantined reports whether the class routes a row to quarantine.
func (c RowClass) Quarantined() bool {
	return c != ClassNormal && c != ""
}

// ReasonText returns the human-readable quarantine reason for the class in
// the given mode. Schema-specific mode uses its own wording.
func (c RowClass) ReasonText(mode Mode) string {
	table := genericReasons
	if mode == ModeSchema {
		table = schemaReasons
	}
	if text, ok := table[c]; ok {
		return text
	}
	return string(c)
}

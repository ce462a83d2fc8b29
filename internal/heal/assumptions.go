package heal

import (
	"fmt"

	"github.com/sells-group/sheet-doctor/internal/model"
)

var schemaAssumptions = []string{
	"Rows that still contain Excel formulas as text (for example '=SUM(...)') are quarantined because they are not stable data values",
	"Ambiguous DD/MM vs MM/DD dates: day-first assumed; fallback to month-first if day-first is impossible",
	"DD-MM-YY / MM-DD-YY two-digit years: day-first assumed; fallback to month-first if impossible; 2000-2049 for YY < 50, 1950-1999 for YY >= 50",
	"Unix timestamps: interpreted as UTC; converted to YYYY-MM-DD",
	"Excel serial dates: Windows epoch (1899-12-30); range 40,000-55,000 treated as dates",
	"European decimal 1.200,00: detected when period precedes comma; converted to 1200.00",
	"Combined values like '$1,200 USD' are split so Amount keeps the numeric value and Currency keeps the ISO code",
	"Blank / N/A / TBD amounts: cleared to empty string and flagged needs_review=TRUE",
	"\"INR \u20b9\" and similar symbol+code combos: symbol stripped, ISO code kept",
	"\"Eng\" department abbreviation: kept as-is (expanding abbreviations requires a lookup table)",
	"Short blank runs in categorical columns are forward-filled when they look like merged-cell export gaps; filled rows are flagged for review",
	"Rows with long single-cell prose are treated as notes/metadata rather than transactional data",
	"Rows labelled TOTAL/Subtotal/SUM are quarantined when the amount matches the running total closely enough to look calculated",
	"Near-duplicate rows (same Name/Amount/Currency/Category, date within 2 days): both kept, both flagged",
	"Exact duplicates: first occurrence kept; subsequent occurrences removed and logged",
	"Short rows (< 8 columns): padded with empty strings; flagged needs_review=TRUE",
	fmt.Sprintf("Metadata export row (sparse, 1/8 fields filled): quarantined as 'Less than %d%% columns filled'",
		int(model.SparseThresholdSchema*100)),
}

var genericAssumptions = []string{
	"Rows that still contain Excel formulas as text are quarantined because they are not stable data values",
	"Delimiter is auto-detected from the file content (comma/semicolon/tab/pipe)",
	"Rows with overflow columns are repaired by merging overflow into the last column",
	"Rows with missing trailing columns are padded with empty strings",
	"Repeated header rows and subtotal/total structural rows are quarantined",
	"Long one-cell prose rows are treated as notes rather than tabular data",
	"Rows before a detected header are moved to File Metadata entries in the Change Log",
	"BOM/null bytes/line breaks/smart quotes are normalised in text cells",
	"Exact duplicate rows are removed (first occurrence kept)",
}

var semanticAssumptions = append(append([]string(nil), genericAssumptions...),
	"When headers are non-standard, likely semantic roles are inferred from the column values and header hints",
	"Date-like columns are normalised to YYYY-MM-DD when confidence is high enough",
	"Amount-like and currency-like columns are normalised even when their headers are not exact schema matches",
	"Status-like, department-like, and category-like columns are title-cased or canonicalised when their semantics are clear enough",
	"Near-duplicate detection uses inferred semantic key columns instead of fixed schema names",
)

// Assumptions returns the assumptions a run in mode relies on.
func Assumptions(mode model.Mode) []string {
	var list []string
	switch mode {
	case model.ModeSchema:
		list = schemaAssumptions
	case model.ModeSemantic:
		list = semanticAssumptions
	default:
		list = genericAssumptions
	}
	return append([]string(nil), list...)
}

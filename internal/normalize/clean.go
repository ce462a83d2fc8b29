// Package normalize holds the pure per-cell repair functions used by the
// healing pipeline. Every normalizer returns (value, changed, reason) and
// leaves unparseable input untouched.
package normalize

import (
	"strings"

	"github.com/sells-group/sheet-doctor/internal/model"
)

const (
	bom = "\ufeff"
	nul = "\x00"
)

var smartQuotes = strings.NewReplacer(
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2018", "'",
	"\u2019", "'",
)

// CleanCell strips BOMs, NUL bytes, embedded line breaks and smart quotes,
// then trims surrounding whitespace. It returns the cleaned text and one
// reason per repair applied.
func CleanCell(value string) (string, []string) {
	v := value
	var reasons []string

	if strings.Contains(v, bom) {
		v = strings.ReplaceAll(v, bom, "")
		reasons = append(reasons, "BOM byte-order mark stripped")
	}
	if strings.Contains(v, nul) {
		v = strings.ReplaceAll(v, nul, "")
		reasons = append(reasons, "Null byte removed")
	}
	if strings.ContainsAny(v, "\r\n") {
		v = strings.ReplaceAll(v, "\r\n", " ")
		v = strings.ReplaceAll(v, "\n", " ")
		v = strings.ReplaceAll(v, "\r", " ")
		reasons = append(reasons, "Embedded line break replaced with space")
	}
	if strings.ContainsAny(v, "\u201c\u201d\u2018\u2019") {
		v = smartQuotes.Replace(v)
		reasons = append(reasons, "Smart/curly quotes normalised to straight quotes")
	}

	return strings.TrimSpace(v), reasons
}

// DisplayOriginal renders a raw cell for the changelog with invisible bytes
// made visible.
func DisplayOriginal(value string) string {
	v := strings.ReplaceAll(value, bom, "[BOM]")
	v = strings.ReplaceAll(v, nul, "[NULL]")
	return strings.TrimSpace(v)
}

// CleanRow cleans every cell of row, logging one Fixed change per repaired
// cell. label names the column for a cell index.
func CleanRow(row []string, rowNum int, label func(int) string) ([]string, []model.Change) {
	cleaned := make([]string, len(row))
	var changes []model.Change
	for i, cell := range row {
		v, reasons := CleanCell(cell)
		if len(reasons) > 0 {
			changes = append(changes, model.Change{
				Row:      rowNum,
				Column:   label(i),
				OldValue: DisplayOriginal(cell),
				NewValue: v,
				Action:   model.ActionFixed,
				Reason:   strings.Join(reasons, "; "),
			})
		}
		cleaned[i] = v
	}
	return cleaned, changes
}

// CollapseSpace joins the whitespace-separated fields of s with single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package header finds the true header row of a table, merges stacked header
// bands, moves leading metadata rows out of the dataset and trims sparse
// edge columns.
package header

import (
	"regexp"
	"strings"

	"github.com/sells-group/sheet-doctor/internal/classify"
	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/normalize"
)

const (
	searchRows     = 20
	maxBandRows    = 4
	longCellLength = 50
)

var (
	alphaRe        = regexp.MustCompile(`[A-Za-z]`)
	numericHeavyRe = regexp.MustCompile(`^[\d,./:-]+$`)
	dateSignalRe   = regexp.MustCompile(`(?i)(\b\d{1,4}[/-]\d{1,2}[/-]\d{1,4}\b|\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b)`)
)

// amountLike reports cells that read as amounts, directly or once a
// currency marker is split off.
func amountLike(cell string) bool {
	if _, ok := normalize.ParseAmountLike(cell); ok {
		return true
	}
	if amount, _ := normalize.ExtractCurrency(cell); amount != "" {
		_, ok := normalize.ParseAmountLike(amount)
		return ok
	}
	return false
}

// LooksLikeHeader reports whether row reads as column labels rather than
// data: at least two mostly alphabetic cells, no formulas, little prose and
// few amount, date or status values.
func LooksLikeHeader(row []string) bool {
	if model.IsSchemaHeader(row) {
		return true
	}
	cells := classify.NonEmpty(row)
	if len(cells) < 2 {
		return false
	}
	long, dataLike, alpha, numeric := 0, 0, 0, 0
	for _, c := range cells {
		if classify.IsFormula(c) {
			return false
		}
		if len([]rune(c)) > longCellLength {
			long++
		}
		switch {
		case amountLike(c):
			dataLike++
		default:
			if d, changed, _ := normalize.Date(c); changed || normalize.IsISODate(d) {
				dataLike++
			} else if normalize.IsStatusHint(c) {
				dataLike++
			}
		}
		if alphaRe.MatchString(c) {
			alpha++
		}
		if numericHeavyRe.MatchString(c) {
			numeric++
		}
	}
	if long >= 2 || dataLike >= 2 {
		return false
	}
	return alpha >= max(2, len(cells)-1) && numeric <= 1
}

// DataSignal counts cells in row that look like amounts, status keywords or
// dates.
func DataSignal(row []string) int {
	signals := 0
	for _, c := range classify.NonEmpty(row) {
		switch {
		case amountLike(c):
			signals++
		case normalize.IsStatusHint(c):
			signals++
		case dateSignalRe.MatchString(c):
			signals++
		}
	}
	return signals
}

// DetectRow returns the 0-based index of the header row. explicit is a
// 1-based override (0 for none) clamped to the available rows. Otherwise an
// exact canonical header wins; then among header-looking rows the last one
// followed by a row with a stronger data signal; then the last candidate.
func DetectRow(rows [][]string, explicit int) int {
	if explicit > 0 {
		return max(0, min(len(rows)-1, explicit-1))
	}
	limit := min(searchRows, len(rows))

	for i := 0; i < limit; i++ {
		if i < len(rows)-1 && model.IsSchemaHeader(rows[i]) {
			return i
		}
	}

	var candidates, signalled []int
	for i := 0; i < limit; i++ {
		if i >= len(rows)-1 || !LooksLikeHeader(rows[i]) {
			continue
		}
		candidates = append(candidates, i)
		next := DataSignal(rows[i+1])
		if next > 0 && next > DataSignal(rows[i]) {
			signalled = append(signalled, i)
		}
	}
	switch {
	case len(signalled) > 0:
		return signalled[len(signalled)-1]
	case len(candidates) > 0:
		return candidates[len(candidates)-1]
	}
	return 0
}

// BandStart walks upward from the header over contiguous header-looking
// rows, covering at most four rows in total.
func BandStart(rows [][]string, headerIdx int) int {
	start := headerIdx
	for start > 0 && headerIdx-start+1 < maxBandRows {
		prev := rows[start-1]
		if len(classify.NonEmpty(prev)) < 2 || !LooksLikeHeader(prev) {
			break
		}
		start--
	}
	return start
}

// MergeBand folds stacked header rows into one. Blank cells inherit the
// value to their left, as merged cells do, and each column joins its
// distinct tokens top to bottom.
func MergeBand(rows [][]string) []string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	if width == 0 {
		return nil
	}

	expanded := make([][]string, len(rows))
	for i, r := range rows {
		expanded[i] = make([]string, width)
		current := ""
		for j := 0; j < width; j++ {
			v := ""
			if j < len(r) {
				v = strings.TrimSpace(strings.ReplaceAll(r[j], "\x00", ""))
			}
			if v != "" {
				current = v
			}
			expanded[i][j] = current
		}
	}

	merged := make([]string, width)
	for j := 0; j < width; j++ {
		var tokens []string
		seen := map[string]bool{}
		for _, r := range expanded {
			v := strings.TrimSpace(r[j])
			if v == "" || seen[strings.ToLower(v)] {
				continue
			}
			seen[strings.ToLower(v)] = true
			tokens = append(tokens, v)
		}
		merged[j] = strings.Join(tokens, " ")
	}
	return merged
}

func joinedText(row []string) string {
	return strings.Join(classify.NonEmpty(row), " | ")
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

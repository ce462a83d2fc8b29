package loader

import (
	"encoding/csv"
	"slices"
	"strings"
)

const (
	sniffLines    = 25
	scoreLines    = 120
	sampleLimit   = 50
	minConsistent = 0.9
)

var (
	candidateDelimiters = []rune{',', ';', '\t', '|'}
	preferredDelimiters = []rune{',', '\t', ';'}
)

// DetectDelimiter sniffs the delimiter from the first non-blank lines of
// text. When sniffing is inconclusive each candidate is scored on modal
// column count, consistency and header agreement.
func DetectDelimiter(text string) rune {
	lines := nonBlankLines(text, sampleLimit)
	if d, ok := sniff(lines[:min(sniffLines, len(lines))]); ok {
		return d
	}
	return scoreDelimiters(strings.Join(lines, "\n"))
}

func nonBlankLines(text string, limit int) []string {
	var out []string
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
}

// sniff picks the candidate whose per-line frequency is most consistent.
// A character qualifies when its modal count, less the lines that disagree,
// covers at least the current consistency bar; the bar relaxes from 1.0 to
// 0.9.
func sniff(lines []string) (rune, bool) {
	if len(lines) == 0 {
		return 0, false
	}
	type mode struct{ freq, count int }
	modes := map[rune]mode{}
	for _, d := range candidateDelimiters {
		hist := map[int]int{}
		for _, line := range lines {
			hist[strings.Count(line, string(d))]++
		}
		if len(hist) == 1 && hist[0] > 0 {
			continue
		}
		best := mode{}
		for freq, count := range hist {
			if count > best.count || (count == best.count && freq > best.freq) {
				best = mode{freq, count}
			}
		}
		others := 0
		for freq, count := range hist {
			if freq != best.freq {
				others += count
			}
		}
		modes[d] = mode{best.freq, best.count - others}
	}

	total := float64(len(lines))
	for consistency := 1.0; consistency >= minConsistent; consistency -= 0.01 {
		var found []rune
		for _, d := range candidateDelimiters {
			m, ok := modes[d]
			if ok && m.freq > 0 && m.count > 0 && float64(m.count)/total >= consistency {
				found = append(found, d)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], true
		}
		for _, p := range preferredDelimiters {
			if slices.Contains(found, p) {
				return p, true
			}
		}
		best := found[0]
		for _, d := range found[1:] {
			if m, b := modes[d], modes[best]; m.count > b.count || (m.count == b.count && m.freq > b.freq) {
				best = d
			}
		}
		return best, true
	}
	return 0, false
}

func scoreDelimiters(sample string) rune {
	best, bestScore, bestWidth := ',', -1e18, 0
	for _, d := range candidateDelimiters {
		rows := parseSample(sample, d)
		if len(rows) < 2 {
			continue
		}
		counts := map[int]int{}
		for _, r := range rows {
			counts[len(r)]++
		}
		modeWidth, modeCount := 0, 0
		for _, r := range rows {
			// first width to reach the top count wins ties
			if c := counts[len(r)]; c > modeCount {
				modeWidth, modeCount = len(r), c
			}
		}
		consistency := float64(modeCount) / float64(len(rows))
		score := float64(modeWidth)*2 + consistency*float64(modeWidth)
		if len(rows[0]) == modeWidth {
			score++
		}
		if modeWidth == 1 {
			score -= 10
		}
		if score > bestScore || (score == bestScore && modeWidth > bestWidth) {
			best, bestScore, bestWidth = d, score, modeWidth
		}
	}
	return best
}

// parseSample reads sample with delimiter d, dropping rows with no text.
func parseSample(sample string, d rune) [][]string {
	r := csv.NewReader(strings.NewReader(sample))
	r.Comma = d
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := r.Read()
		if rec == nil && err != nil {
			if _, parse := err.(*csv.ParseError); parse {
				continue
			}
			break
		}
		for _, c := range rec {
			if strings.TrimSpace(c) != "" {
				rows = append(rows, rec)
				break
			}
		}
	}
	return rows
}

package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseDelimited parses text as CSV with the given delimiter. Quoted fields
// may span lines. Blank lines become empty rows so row numbers keep
// matching the original line layout. Malformed records are skipped and
// counted.
func ParseDelimited(text string, delimiter rune) (rows [][]string, skipped int) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	consumed := 0 // newlines before the reader's current offset
	offset := int64(0)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		next := r.InputOffset()
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				consumed += strings.Count(text[offset:next], "\n")
				offset = next
				continue
			}
			break
		}
		line, _ := r.FieldPos(0)
		for blank := line - consumed - 1; blank > 0; blank-- {
			rows = append(rows, []string{})
		}
		rows = append(rows, rec)
		consumed += strings.Count(text[offset:next], "\n")
		offset = next
	}
	if int(offset) < len(text) {
		for range strings.Count(text[offset:], "\n") {
			rows = append(rows, []string{})
		}
	}
	return rows, skipped
}

// loadText handles .csv, .tsv and .txt inputs.
func loadText(raw []byte, format string) (*Result, error) {
	enc := DetectEncoding(raw)
	// Lone carriage returns end lines too.
	text := strings.ReplaceAll(strings.ReplaceAll(DecodeText(raw, enc.Detected), "\r\n", "\n"), "\r", "\n")

	delim := '\t'
	if format != "tsv" {
		delim = DetectDelimiter(text)
	}
	if format == "txt" {
		if err := validateTable(text, delim); err != nil {
			return nil, err
		}
	}

	rows, skipped := ParseDelimited(text, delim)
	res := &Result{
		Rows:      rows,
		Delimiter: string(delim),
		Format:    format,
		Encoding:  &enc,
	}
	if skipped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d malformed record(s) could not be parsed and were skipped", skipped))
	}
	return res, nil
}

// validateTable rejects .txt prose: the sample needs two non-empty rows and
// two rows with more than one field.
func validateTable(text string, delim rune) error {
	rows := parseSample(strings.Join(nonBlankLines(text, sampleLimit), "\n"), delim)
	if len(rows) < 2 {
		return Errorf(KindUnsupported, ".txt file does not appear to contain delimited/tabular data (need at least 2 non-empty rows)")
	}
	multi := 0
	for _, r := range rows {
		if len(r) > 1 {
			multi++
		}
	}
	if multi < 2 {
		return Errorf(KindUnsupported, ".txt file does not appear to contain delimited/tabular data (detected delimiter %q but fewer than 2 rows contain multiple fields)", string(delim))
	}
	return nil
}

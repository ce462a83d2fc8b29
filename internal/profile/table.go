package profile

import (
	"github.com/sells-group/sheet-doctor/internal/model"
)

// Summary aggregates a table analysis.
type Summary struct {
	TotalRows     int                      `json:"total_rows"`
	TotalColumns  int                      `json:"total_columns"`
	DetectedTypes map[model.AtomicType]int `json:"detected_types"`
	IssueCounts   map[string]int           `json:"issue_counts"`
}

// Report is the analysis of a whole table.
type Report struct {
	Columns []Column `json:"columns"`
	Summary Summary  `json:"summary"`
}

// Column returns the profile for header, if present.
func (r Report) Column(header string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Header == header {
			return c, true
		}
	}
	return Column{}, false
}

// Analyse profiles every column of rows. Rows shorter than headers are read
// as blank in the missing columns.
func Analyse(headers []string, rows [][]string) Report {
	report := Report{
		Columns: make([]Column, 0, len(headers)),
		Summary: Summary{
			TotalRows:     len(rows),
			TotalColumns:  len(headers),
			DetectedTypes: map[model.AtomicType]int{},
			IssueCounts:   map[string]int{},
		},
	}
	values := make([]string, len(rows))
	for i, header := range headers {
		for r, row := range rows {
			values[r] = ""
			if i < len(row) {
				values[r] = row[i]
			}
		}
		col := AnalyseColumn(header, values)
		report.Columns = append(report.Columns, col)
		report.Summary.DetectedTypes[col.DetectedType]++
		for _, issue := range col.SuspectedIssues {
			report.Summary.IssueCounts[issue]++
		}
	}
	return report
}

// Package writer emits the healed outputs of a run: three CSV files, a
// three-sheet workbook and a JSON report.
package writer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sheet-doctor/internal/heal"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// DefaultFormats is every output format.
var DefaultFormats = []string{FormatCSV, FormatXLSX, FormatJSON}

// Column headers appended to or used by the output tables.
var (
	cleanExtras      = []string{"Was Modified", "Needs Review"}
	quarantineExtras = []string{"Quarantine Reason"}
	changelogHeaders = []string{"Row", "Column", "Original Value", "New Value", "Action", "Reason"}
)

// Stem derives the output file stem from an input path or URL.
func Stem(input string) string {
	base := filepath.Base(input)
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "output"
	}
	return stem
}

// Write writes res into dir using stem for file names. It returns the paths
// written, in format order.
func Write(res *heal.Result, dir, stem string, formats []string) ([]string, error) {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "writer: create output dir %s", dir)
	}

	var paths []string
	for _, format := range formats {
		switch strings.ToLower(format) {
		case FormatCSV:
			written, err := writeCSVFiles(res, dir, stem)
			if err != nil {
				return paths, err
			}
			paths = append(paths, written...)
		case FormatXLSX:
			path := filepath.Join(dir, stem+"_healed.xlsx")
			if err := WriteWorkbook(res, path); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		case FormatJSON:
			path := filepath.Join(dir, stem+"_report.json")
			if err := writeReportFile(res, path); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		default:
			return paths, eris.Errorf("writer: unsupported format %q", format)
		}
	}

	zap.L().Debug("writer: outputs written",
		zap.String("dir", dir),
		zap.Strings("paths", paths),
	)
	return paths, nil
}

func boolText(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// fit pads or cuts cells to width.
func fit(cells []string, width int) []string {
	out := make([]string, width)
	copy(out, cells)
	return out
}

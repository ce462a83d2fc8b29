// Package loader reads tabular inputs into raw string rows. Text files go
// through encoding detection, a line-by-line decode chain and delimiter
// sniffing; workbooks are read as stored, one sheet or a consolidated set.
package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Formats lists the supported file extensions without the leading dot.
var Formats = []string{"csv", "json", "jsonl", "ods", "tsv", "txt", "xls", "xlsm", "xlsx"}

// Options controls sheet selection and guardrails.
type Options struct {
	// Sheet names the workbook sheet to read.
	Sheet string
	// Consolidate concatenates every sheet when their first rows match.
	Consolidate bool
	// Limits are the guardrails; the zero value means DefaultLimits.
	Limits Limits
}

// Result is a loaded table.
type Result struct {
	Rows            [][]string    `json:"-"`
	Delimiter       string        `json:"delimiter"`
	Format          string        `json:"format"`
	Encoding        *EncodingInfo `json:"encoding,omitempty"`
	SheetName       string        `json:"sheet_name,omitempty"`
	SheetNames      []string      `json:"sheet_names,omitempty"`
	Degraded        bool          `json:"degraded"`
	DegradedReasons []string      `json:"degraded_reasons,omitempty"`
	Warnings        []string      `json:"warnings"`
}

// Load reads path according to its extension.
func Load(path string, opts Options) (*Result, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Errorf(KindNotFound, "file not found: %s", path)
		}
		return nil, wrap(KindUnreadableContainer, err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, Errorf(KindNotFound, "%s is a directory", path)
	}
	if !supported(format) {
		return nil, Errorf(KindUnsupported, "unsupported format '.%s'. Supported: .%s", format, strings.Join(Formats, ", ."))
	}

	g := &guard{limits: opts.Limits.orDefault()}
	if err := g.bytes(info.Size()); err != nil {
		return nil, err
	}

	var res *Result
	switch format {
	case "csv", "tsv", "txt":
		raw, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, wrap(KindUnreadableContainer, rerr, "read %s", path)
		}
		res, err = loadText(raw, format)
	case "xlsx", "xlsm", "xls", "ods":
		res, err = loadWorkbook(path, format, opts)
	case "json", "jsonl":
		raw, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, wrap(KindUnreadableContainer, rerr, "read %s", path)
		}
		if format == "json" {
			res, err = loadJSON(raw)
		} else {
			res = loadJSONL(raw)
		}
	}
	if err != nil {
		return nil, err
	}

	if len(res.Rows) == 0 {
		return nil, Errorf(KindEmptyInput, "File is empty or has only a header.")
	}
	if err := g.rows(len(res.Rows)); err != nil {
		return nil, err
	}
	g.finish(res)
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	for _, w := range res.Warnings {
		zap.L().Warn("loader: "+w, zap.String("path", path))
	}
	zap.L().Debug("loader: loaded",
		zap.String("path", path),
		zap.String("format", format),
		zap.Int("rows", len(res.Rows)),
		zap.Bool("degraded", res.Degraded),
	)
	return res, nil
}

func supported(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

package writer

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sheet-doctor/internal/heal"
	"github.com/sells-group/sheet-doctor/internal/model"
)

// Report is the JSON summary of a run.
type Report struct {
	Input         string                `json:"input"`
	RunID         string                `json:"run_id,omitempty"`
	Format        string                `json:"format,omitempty"`
	SheetName     string                `json:"sheet_name,omitempty"`
	Mode          model.Mode            `json:"mode"`
	Headers       []string              `json:"headers"`
	Summary       heal.Summary          `json:"summary"`
	Overrides     map[string]model.Role `json:"applied_role_overrides"`
	Degraded      bool                  `json:"degraded"`
	ExtrasSkipped bool                  `json:"post_pass_skipped"`
	Assumptions   []string              `json:"assumptions"`
	Warnings      []string              `json:"warnings"`
}

// NewReport summarises res.
func NewReport(res *heal.Result) Report {
	return Report{
		Input:         res.Source.Path,
		RunID:         res.RunID,
		Format:        res.Source.Format,
		SheetName:     res.Source.SheetName,
		Mode:          res.Mode,
		Headers:       res.Headers,
		Summary:       res.Summary(),
		Overrides:     res.Overrides,
		Degraded:      res.Source.Degraded,
		ExtrasSkipped: res.ExtrasSkipped,
		Assumptions:   res.Assumptions,
		Warnings:      res.Source.Warnings,
	}
}

// WriteReport writes the indented JSON report to w.
func WriteReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "writer: encode report")
	}
	return nil
}

func writeReportFile(res *heal.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "writer: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	return WriteReport(f, NewReport(res))
}

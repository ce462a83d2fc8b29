// Package heal runs the healing pipeline: load, header preprocessing, role
// assignment, then a single row pass through classification, repair and
// deduplication, followed by the optional forward-fill and near-duplicate
// post-pass.
package heal

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sheet-doctor/internal/header"
	"github.com/sells-group/sheet-doctor/internal/loader"
	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/semantic"
)

// DefaultSkipExtrasRows is the data row count above which the post-pass is
// skipped.
const DefaultSkipExtrasRows = 10_000

// Options controls a healing run.
type Options struct {
	Sheet       string
	Consolidate bool
	// HeaderRow is the 1-based header row; 0 detects it.
	HeaderRow int
	// Overrides map a 1-based column index or header name to a role.
	Overrides      semantic.Overrides
	PreviewRows    int
	SkipExtrasRows int
	Limits         loader.Limits
}

func (o Options) skipExtrasRows() int {
	if o.SkipExtrasRows <= 0 {
		return DefaultSkipExtrasRows
	}
	return o.SkipExtrasRows
}

// Source describes where the rows came from.
type Source struct {
	Path      string               `json:"input"`
	Format    string               `json:"format,omitempty"`
	Delimiter string               `json:"delimiter"`
	SheetName string               `json:"sheet_name,omitempty"`
	Encoding  *loader.EncodingInfo `json:"encoding,omitempty"`
	Degraded  bool                 `json:"degraded"`
	Warnings  []string             `json:"warnings"`
	Reasons   []string             `json:"degraded_reasons,omitempty"`
}

// Result is the outcome of a healing run.
type Result struct {
	// RunID is set by callers that record the run.
	RunID      string
	Source     Source
	TotalIn    int
	Mode       model.Mode
	Headers    []string
	Clean      []model.CleanRow
	Quarantine []model.QuarantineRow
	Changelog  *model.Changelog
	// Removed counts rows dropped as exact duplicates.
	Removed       int
	ExtrasSkipped bool
	Overrides     map[string]model.Role
	Assumptions   []string
}

// Summary holds the run counters reported to callers.
type Summary struct {
	RowsIn       int                  `json:"rows_in"`
	Clean        int                  `json:"clean_rows"`
	Quarantined  int                  `json:"quarantined_rows"`
	Removed      int                  `json:"removed_duplicates"`
	Modified     int                  `json:"was_modified"`
	NeedsReview  int                  `json:"needs_review"`
	Changes      int                  `json:"changes_logged"`
	ActionCounts map[model.Action]int `json:"action_counts"`
	ReasonCounts map[string]int       `json:"quarantine_reason_counts"`
}

// Summary tallies the result.
func (r *Result) Summary() Summary {
	s := Summary{
		RowsIn:       r.TotalIn,
		Clean:        len(r.Clean),
		Quarantined:  len(r.Quarantine),
		Removed:      r.Removed,
		Changes:      r.Changelog.Len(),
		ActionCounts: r.Changelog.ActionCounts(),
		ReasonCounts: r.ReasonCounts(),
	}
	for _, a := range model.Actions {
		if _, ok := s.ActionCounts[a]; !ok {
			s.ActionCounts[a] = 0
		}
	}
	for _, row := range r.Clean {
		if row.WasModified {
			s.Modified++
		}
		if row.NeedsReview {
			s.NeedsReview++
		}
	}
	return s
}

// ReasonCounts counts quarantined rows per reason.
func (r *Result) ReasonCounts() map[string]int {
	counts := make(map[string]int)
	for _, q := range r.Quarantine {
		counts[q.Reason]++
	}
	return counts
}

// Reasons returns the quarantine reasons in sorted order.
func (r *Result) Reasons() []string {
	counts := r.ReasonCounts()
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	return reasons
}

// Record copies the run counters onto run.
func (r *Result) Record(run *model.Run) {
	s := r.Summary()
	run.Mode = r.Mode
	run.RowsIn = s.RowsIn
	run.Clean = s.Clean
	run.Quarantined = s.Quarantined
	run.Removed = s.Removed
	run.Modified = s.Modified
	run.NeedsReview = s.NeedsReview
	run.Degraded = r.Source.Degraded
	run.ReasonCounts = s.ReasonCounts
}

// Heal loads path and heals its rows.
func Heal(path string, opts Options) (*Result, error) {
	loaded, err := loader.Load(path, loader.Options{
		Sheet:       opts.Sheet,
		Consolidate: opts.Consolidate,
		Limits:      opts.Limits,
	})
	if err != nil {
		return nil, err
	}
	src := sourceOf(path, loaded)
	res, err := Rows(loaded.Rows, src, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "heal: %s", path)
	}
	return res, nil
}

// Rows heals already-loaded rows. src.Delimiter is used to merge overflow
// fields; src.Degraded skips the post-pass.
func Rows(rows [][]string, src Source, opts Options) (*Result, error) {
	if len(rows) < 2 {
		return nil, loader.Errorf(loader.KindEmptyInput, "File is empty or has only a header.")
	}
	if src.Delimiter == "" {
		src.Delimiter = ","
	}
	if src.Warnings == nil {
		src.Warnings = []string{}
	}

	pre := header.Preprocess(rows, opts.HeaderRow)
	if len(pre.Rows) < 2 {
		return nil, loader.Errorf(loader.KindEmptyInput, "File is empty after metadata/header detection.")
	}

	p := newPipeline(pre, src, opts)
	if model.IsSchemaHeader(pre.Rows[0]) && len(opts.Overrides) == 0 {
		p.schema()
	} else if err := p.generic(); err != nil {
		return nil, err
	}
	p.res.TotalIn = len(rows)

	s := p.res.Summary()
	zap.L().Info("heal: complete",
		zap.String("input", src.Path),
		zap.String("mode", string(p.res.Mode)),
		zap.Int("rows_in", s.RowsIn),
		zap.Int("clean", s.Clean),
		zap.Int("quarantined", s.Quarantined),
		zap.Int("removed", s.Removed),
		zap.Int("changes", s.Changes),
		zap.Bool("extras_skipped", p.res.ExtrasSkipped),
	)
	return p.res, nil
}

func sourceOf(path string, loaded *loader.Result) Source {
	return Source{
		Path:      path,
		Format:    loaded.Format,
		Delimiter: loaded.Delimiter,
		SheetName: loaded.SheetName,
		Encoding:  loaded.Encoding,
		Degraded:  loaded.Degraded,
		Warnings:  loaded.Warnings,
		Reasons:   loaded.DegradedReasons,
	}
}

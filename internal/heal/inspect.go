package heal

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/sheet-doctor/internal/header"
	"github.com/sells-group/sheet-doctor/internal/loader"
	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/semantic"
)

// Inspection describes how a file would be healed without healing it.
type Inspection struct {
	Delimiter                string                `json:"delimiter"`
	OriginalRowsTotal        int                   `json:"original_rows_total"`
	DetectedHeaderRowNumber  int                   `json:"detected_header_row_number"`
	DetectedHeaderBandRows   []int                 `json:"detected_header_band_rows"`
	MetadataRowsRemoved      int                   `json:"metadata_rows_removed"`
	HeaderBandMerged         bool                  `json:"header_band_merged"`
	EffectiveHeaders         []string              `json:"effective_headers"`
	HealingModeCandidate     model.Mode            `json:"healing_mode_candidate"`
	SuggestedSemanticColumns []semantic.Column     `json:"suggested_semantic_columns"`
	SemanticColumns          []semantic.Column     `json:"semantic_columns"`
	SemanticComparison       []semantic.Comparison `json:"semantic_comparison"`
	AppliedRoleOverrides     map[string]model.Role `json:"applied_role_overrides"`
	Warnings                 []string              `json:"warnings"`
}

// Inspect loads path and reports its healing plan.
func Inspect(path string, opts Options) (*Inspection, error) {
	loaded, err := loader.Load(path, loader.Options{
		Sheet:       opts.Sheet,
		Consolidate: opts.Consolidate,
		Limits:      opts.Limits,
	})
	if err != nil {
		return nil, err
	}
	return InspectRows(loaded.Rows, sourceOf(path, loaded), opts)
}

// InspectRows reports the healing plan for already-loaded rows.
func InspectRows(rows [][]string, src Source, opts Options) (*Inspection, error) {
	if len(rows) == 0 {
		return nil, loader.Errorf(loader.KindEmptyInput, "File is empty.")
	}
	pre := header.Preprocess(rows, opts.HeaderRow)
	if len(pre.Rows) == 0 {
		return nil, loader.Errorf(loader.KindEmptyInput, "No usable rows remain after preprocessing.")
	}

	in := &Inspection{
		Delimiter:               src.Delimiter,
		OriginalRowsTotal:       len(rows),
		DetectedHeaderRowNumber: pre.HeaderRow(),
		DetectedHeaderBandRows:  pre.BandRows(),
		MetadataRowsRemoved:     pre.MetadataRemoved(),
		HeaderBandMerged:        pre.BandMerged(),
		AppliedRoleOverrides:    map[string]model.Role{},
		Warnings:                src.Warnings,
	}
	if in.Warnings == nil {
		in.Warnings = []string{}
	}

	if model.IsSchemaHeader(pre.Rows[0]) && len(opts.Overrides) == 0 {
		in.EffectiveHeaders = append([]string(nil), model.SchemaHeaders...)
		in.HealingModeCandidate = model.ModeSchema
		in.SemanticColumns = semantic.SchemaColumns()
		in.SuggestedSemanticColumns = semantic.SchemaColumns()
		in.SemanticComparison = semantic.SchemaComparison(nil)
		return in, nil
	}

	headers, _ := header.NormalizeGeneric(pre.Rows[0], pre.HeaderRow())
	overrides, err := opts.Overrides.Resolve(headers)
	if err != nil {
		return nil, eris.Wrap(err, "heal: resolve role overrides")
	}
	data := pre.Rows[1:]
	suggested := semantic.BuildPlan(headers, data, src.Delimiter, nil, opts.PreviewRows)
	effective := semantic.BuildPlan(headers, data, src.Delimiter, overrides, opts.PreviewRows)

	in.EffectiveHeaders = headers
	in.HealingModeCandidate = model.ModeGeneric
	if effective.Enabled() {
		in.HealingModeCandidate = model.ModeSemantic
	}
	in.SuggestedSemanticColumns = semantic.Columns(headers, suggested)
	in.SemanticColumns = semantic.Columns(headers, effective)
	in.SemanticComparison = semantic.Compare(headers, suggested, effective, overrides)
	in.AppliedRoleOverrides = semantic.Applied(overrides)
	return in, nil
}

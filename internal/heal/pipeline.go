package heal

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sheet-doctor/internal/classify"
	"github.com/sells-group/sheet-doctor/internal/dedup"
	"github.com/sells-group/sheet-doctor/internal/header"
	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/normalize"
	"github.com/sells-group/sheet-doctor/internal/semantic"
)

// pipeline carries the per-file mutable state of one row pass.
type pipeline struct {
	pre   header.Result
	opts  Options
	res   *Result
	log   *model.Changelog
	exact *dedup.Index
	// running is the sum of accepted amounts, used to spot calculated totals.
	running float64
}

func newPipeline(pre header.Result, src Source, opts Options) *pipeline {
	log := model.NewChangelog(pre.Changes...)
	return &pipeline{
		pre:   pre,
		opts:  opts,
		log:   log,
		exact: dedup.NewIndex(),
		res: &Result{
			Source:     src,
			Changelog:  log,
			Clean:      []model.CleanRow{},
			Quarantine: []model.QuarantineRow{},
			Overrides:  map[string]model.Role{},
		},
	}
}

func (p *pipeline) data() [][]string { return p.pre.Rows[1:] }

// reject quarantines a raw row the classifier turned away.
func (p *pipeline) reject(raw []string, rowNum int, class model.RowClass, headers []string) {
	q, change := classify.Quarantine(raw, rowNum, class, p.res.Mode, headers)
	p.res.Quarantine = append(p.res.Quarantine, q)
	p.log.Add(change)
}

// subtotal quarantines a repaired row that turned out to be a calculated total.
func (p *pipeline) subtotal(cells []string, rowNum int, amountColumn, amount string) {
	class := model.ClassCalculatedSubtotal
	p.res.Quarantine = append(p.res.Quarantine, model.QuarantineRow{
		Cells:  cells,
		Row:    rowNum,
		Class:  class,
		Reason: class.ReasonText(p.res.Mode),
	})
	p.log.Add(model.Change{
		Row:      rowNum,
		Column:   amountColumn,
		OldValue: amount,
		Action:   model.ActionQuarantined,
		Reason:   class.ReasonText(p.res.Mode),
	})
}

// accept dedups a repaired row and keeps it when it is new. It reports
// whether the row was kept.
func (p *pipeline) accept(cells []string, rowNum int, modified, review bool) bool {
	if first, dup := p.exact.Seen(cells, rowNum); dup {
		label := ""
		if len(cells) > 0 {
			label = cells[0]
		}
		p.log.Add(dedup.Removed(rowNum, first, label))
		p.res.Removed++
		return false
	}
	p.res.Clean = append(p.res.Clean, model.CleanRow{
		Cells:       cells,
		Row:         rowNum,
		WasModified: modified,
		NeedsReview: review,
	})
	if !modified {
		p.log.Add(model.Change{
			Row:    rowNum,
			Column: model.ColumnRow,
			Action: model.ActionValidated,
			Reason: "Row passed validation unchanged",
		})
	}
	return true
}

func (p *pipeline) addAmount(amount string) {
	if v, ok := normalize.ParseAmountLike(amount); ok {
		p.running += v
	}
}

// extras reports whether the post-pass may run, recording why when not.
func (p *pipeline) extras() bool {
	n := len(p.data())
	switch {
	case p.res.Source.Degraded:
		p.res.ExtrasSkipped = true
		return false
	case n > p.opts.skipExtrasRows():
		p.res.ExtrasSkipped = true
		p.res.Source.Warnings = append(p.res.Source.Warnings,
			fmt.Sprintf("Forward-fill and near-duplicate passes skipped for %d data rows (limit %d)", n, p.opts.skipExtrasRows()))
		return false
	}
	return true
}

// schema heals a table whose header is the canonical expense schema.
func (p *pipeline) schema() {
	p.res.Mode = model.ModeSchema
	p.res.Headers = append([]string(nil), model.SchemaHeaders...)
	p.res.Assumptions = Assumptions(model.ModeSchema)
	sig := classify.NewSignature(model.SchemaHeaders)

	for j, raw := range p.data() {
		rowNum := p.pre.DataRowNumber(j)
		if class := classify.Schema(raw, sig); class.Quarantined() {
			p.reject(raw, rowNum, class, model.SchemaHeaders)
			continue
		}

		aligned, alignChange, padded := classify.AlignSchema(raw, rowNum)
		if alignChange != nil {
			p.log.Add(*alignChange)
		}
		cleaned, cellChanges := normalize.CleanRow(aligned, rowNum, model.SchemaColumnLabel)
		p.log.Add(cellChanges...)
		fixed, normChanges := normalize.ApplySchema(cleaned, rowNum)
		p.log.Add(normChanges...)

		amount := fixed[model.ColAmount]
		label := firstFilled(fixed[model.ColName], fixed[model.ColDepartment], fixed[model.ColCategory])
		if classify.AmountTotalish(label, amount, p.running) || classify.SparseTotalRow(fixed, model.ColName, model.ColAmount) {
			p.subtotal(fixed, rowNum, model.SchemaHeaders[model.ColAmount], amount)
			continue
		}

		modified := alignChange != nil || len(cellChanges) > 0 || len(normChanges) > 0
		review := normalize.NeedsReviewSchema(fixed, model.ColAmount, model.ColDate, padded)
		if p.accept(fixed, rowNum, modified, review) {
			p.addAmount(amount)
		}
	}

	if !p.extras() {
		return
	}
	filled := dedup.ForwardFill(p.res.Clean, p.log, model.SchemaHeaders, dedup.SchemaFillColumns)
	pairs := dedup.FlagNearDuplicates(p.res.Clean, p.log, dedup.SchemaNearKey())
	zap.L().Debug("heal: schema post-pass", zap.Int("filled", filled), zap.Int("near_duplicate_pairs", pairs))
}

// generic heals any other table, enabling role-based repairs when the
// semantic plan clears its bar.
func (p *pipeline) generic() error {
	headers, headerChanges := header.NormalizeGeneric(p.pre.Rows[0], p.pre.HeaderRow())
	p.log.Add(headerChanges...)
	p.res.Headers = headers

	overrides, err := p.opts.Overrides.Resolve(headers)
	if err != nil {
		return eris.Wrap(err, "heal: resolve role overrides")
	}
	p.res.Overrides = semantic.Applied(overrides)

	delimiter := p.res.Source.Delimiter
	plan := semantic.BuildPlan(headers, p.data(), delimiter, overrides, p.opts.PreviewRows)
	roles := plan.Roles()
	p.res.Mode = model.ModeGeneric
	if plan.Enabled() {
		p.res.Mode = model.ModeSemantic
	}
	p.res.Assumptions = Assumptions(p.res.Mode)
	zap.L().Debug("heal: semantic plan",
		zap.Bool("enabled", plan.Enabled()),
		zap.Int("roles", len(roles)),
		zap.Int("fill_down", len(plan.FillDown())),
	)

	amountIdx := plan.AmountIdx()
	if amountIdx < 0 {
		amountIdx = amountHeader(headers)
	}
	labelIdx := 0
	if plan.Enabled() {
		labelIdx = plan.LabelIdx()
	}

	nCols := len(headers)
	sig := classify.NewSignature(headers)
	label := func(i int) string { return model.ColumnLabel(headers, i) }

	for j, raw := range p.data() {
		rowNum := p.pre.DataRowNumber(j)
		if class := classify.Generic(raw, sig, nCols); class.Quarantined() {
			p.reject(raw, rowNum, class, headers)
			continue
		}

		aligned, alignChange, structureChanged := classify.AlignGeneric(raw, rowNum, nCols, delimiter)
		if alignChange != nil {
			p.log.Add(*alignChange)
		}
		cleaned, cellChanges := normalize.CleanRow(aligned, rowNum, label)
		p.log.Add(cellChanges...)
		var roleChanges []model.Change
		if plan.Enabled() {
			cleaned, roleChanges = normalize.ApplyRoles(cleaned, rowNum, headers, roles, plan.AmountIdx(), plan.CurrencyIdx())
			p.log.Add(roleChanges...)
		}
		modified := alignChange != nil || len(cellChanges) > 0 || len(roleChanges) > 0

		if amountIdx >= 0 {
			amount := cellAt(cleaned, amountIdx)
			if classify.AmountTotalish(cellAt(cleaned, labelIdx), amount, p.running) || classify.SparseTotalRow(cleaned, labelIdx, amountIdx) {
				p.subtotal(cleaned, rowNum, headers[amountIdx], amount)
				continue
			}
		}

		var review bool
		if plan.Enabled() {
			review = normalize.NeedsReviewSemantic(cleaned, structureChanged, plan.AmountIdx(), plan.DateIdx())
		} else {
			review = normalize.NeedsReviewGeneric(cleaned, structureChanged)
		}
		if p.accept(cleaned, rowNum, modified, review) && amountIdx >= 0 {
			p.addAmount(cellAt(cleaned, amountIdx))
		}
	}

	fillDown := plan.FillDown()
	if !plan.Enabled() || len(fillDown) == 0 || !p.extras() {
		return nil
	}
	filled := dedup.ForwardFill(p.res.Clean, p.log, headers, fillDown)
	pairs := 0
	if key, ok := dedup.SemanticNearKey(roles, plan.DateIdx(), plan.AmountIdx(), plan.LabelIdx()); ok {
		pairs = dedup.FlagNearDuplicates(p.res.Clean, p.log, key)
	}
	zap.L().Debug("heal: semantic post-pass", zap.Int("filled", filled), zap.Int("near_duplicate_pairs", pairs))
	return nil
}

// amountHeader finds the first header mentioning an amount or total.
func amountHeader(headers []string) int {
	for i, h := range headers {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "amount") || strings.Contains(lower, "total") {
			return i
		}
	}
	return -1
}

func firstFilled(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func cellAt(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return row[i]
	}
	return ""
}

package model

// CleanRow is an accepted, repaired row.
type CleanRow struct {
	Cells       []string `json:"cells"`
	Row         int      `json:"row"`
	WasModified bool     `json:"was_modified"`
	NeedsReview bool     `json:"needs_review"`
}

// FlagForReview marks the row for human review and records why.
func (r *CleanRow) FlagForReview(log *Changelog, column, value, reason string) {
	r.NeedsReview = true
	log.Add(Change{
		Row:      r.Row,
		Column:   column,
		OldValue: value,
		Action:   ActionFlagged,
		Reason:   reason,
	})
}

// Fill writes value into an empty cell, marking the row modified and in need
// of review.
func (r *CleanRow) Fill(log *Changelog, idx int, column, value, reason string) {
	old := r.Cells[idx]
	r.Cells[idx] = value
	r.WasModified = true
	r.NeedsReview = true
	log.Add(Change{
		Row:      r.Row,
		Column:   column,
		OldValue: old,
		NewValue: value,
		Action:   ActionFixed,
		Reason:   reason,
	})
}

// QuarantineRow is a row judged unsafe to repair.
type QuarantineRow struct {
	Cells  []string `json:"cells"`
	Row    int      `json:"row"`
	Class  RowClass `json:"class"`
	Reason string   `json:"reason"`
}

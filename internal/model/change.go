package model

// Action is what the healer did to a row or cell. Validated marks a row
// kept unchanged so every data row has at least one entry.
type Action string

const (
	ActionFixed       Action = "Fixed"
	ActionQuarantined Action = "Quarantined"
	ActionRemoved     Action = "Removed"
	ActionFlagged     Action = "Flagged"
	ActionValidated   Action = "Validated"
)

// Actions lists every action in reporting order.
var Actions = []Action{ActionFixed, ActionQuarantined, ActionRemoved, ActionFlagged, ActionValidated}

// Sentinel column labels used by changelog entries that do not target a single cell.
const (
	ColumnRow          = "[row]"
	ColumnMetadata     = "[file metadata]"
	ColumnHeaderBand   = "[header band]"
	ColumnTrimming     = "[column trimming]"
	ColumnRowStructure = "[row structure]"
)

// Change is one audit trail entry.
type Change struct {
	Row      int    `json:"row"`
	Column   string `json:"column"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
	Action   Action `json:"action"`
	Reason   string `json:"reason"`
}

// Changelog is an append-only list of changes.
type Changelog struct {
	entries []Change
}

// NewChangelog returns a changelog seeded with the given entries.
func NewChangelog(seed ...Change) *Changelog {
	c := &Changelog{}
	c.Add(seed...)
	return c
}

// Add appends entries. Entries are never edited once added.
func (c *Changelog) Add(changes ...Change) {
	c.entries = append(c.entries, changes...)
}

// Entries returns a copy of the recorded changes in insertion order.
func (c *Changelog) Entries() []Change {
	out := make([]Change, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Changelog) Len() int { return len(c.entries) }

// ActionCounts tallies entries per action.
func (c *Changelog) ActionCounts() map[Action]int {
	counts := make(map[Action]int, len(Actions))
	for _, e := range c.entries {
		counts[e.Action]++
	}
	return counts
}

// RowsWith returns the set of row numbers referenced by at least one entry.
func (c *Changelog) RowsWith() map[int]bool {
	rows := make(map[int]bool, len(c.entries))
	for _, e := range c.entries {
		rows[e.Row] = true
	}
	return rows
}

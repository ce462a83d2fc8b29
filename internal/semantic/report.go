package semantic

import (
	"github.com/sells-group/sheet-doctor/internal/model"
)

// schemaConfidence is reported for the fixed roles of the canonical schema.
const schemaConfidence = 0.99

// Column is one assigned role as shown in a healing plan.
type Column struct {
	ColumnIndex int        `json:"column_index"`
	Header      string     `json:"header"`
	Role        model.Role `json:"role"`
	Confidence  float64    `json:"confidence"`
}

// Comparison contrasts the detected role of a column with the role left
// after overrides.
type Comparison struct {
	ColumnIndex        int        `json:"column_index"`
	Header             string     `json:"header"`
	DetectedRole       model.Role `json:"detected_role"`
	DetectedConfidence float64    `json:"detected_confidence"`
	OverrideRole       model.Role `json:"override_role"`
	FinalRole          model.Role `json:"final_role"`
	FinalConfidence    float64    `json:"final_confidence"`
}

// Columns lists the plan's assignments in column order. ColumnIndex is
// 1-based.
func Columns(headers []string, p *Plan) []Column {
	out := []Column{}
	for _, idx := range p.Indexes() {
		role, _ := p.Role(idx)
		out = append(out, Column{
			ColumnIndex: idx + 1,
			Header:      model.ColumnLabel(headers, idx),
			Role:        role,
			Confidence:  p.Confidence(idx),
		})
	}
	return out
}

// Compare reports, for every header, the suggested and effective roles.
func Compare(headers []string, suggested, effective *Plan, overrides map[int]model.Role) []Comparison {
	out := make([]Comparison, 0, len(headers))
	for idx, header := range headers {
		detected, _ := suggested.Role(idx)
		final, _ := effective.Role(idx)
		out = append(out, Comparison{
			ColumnIndex:        idx + 1,
			Header:             header,
			DetectedRole:       detected,
			DetectedConfidence: suggested.Confidence(idx),
			OverrideRole:       overrides[idx],
			FinalRole:          final,
			FinalConfidence:    effective.Confidence(idx),
		})
	}
	return out
}

// SchemaColumns reports the canonical schema's fixed roles.
func SchemaColumns() []Column {
	out := make([]Column, 0, model.SchemaWidth)
	for i, header := range model.SchemaHeaders {
		out = append(out, Column{
			ColumnIndex: i + 1,
			Header:      header,
			Role:        model.SchemaRoles[i],
			Confidence:  schemaConfidence,
		})
	}
	return out
}

// SchemaComparison is Compare for the canonical schema. Overrides never
// reach schema mode, so they only appear here for reporting.
func SchemaComparison(overrides map[int]model.Role) []Comparison {
	out := make([]Comparison, 0, model.SchemaWidth)
	for i, header := range model.SchemaHeaders {
		role := model.SchemaRoles[i]
		c := Comparison{
			ColumnIndex:        i + 1,
			Header:             header,
			DetectedRole:       role,
			DetectedConfidence: schemaConfidence,
			OverrideRole:       overrides[i],
			FinalRole:          role,
			FinalConfidence:    schemaConfidence,
		}
		if o, ok := overrides[i]; ok {
			if o == model.RoleIgnore {
				c.FinalRole = ""
			} else {
				c.FinalRole = o
				c.FinalConfidence = 1.0
			}
		}
		out = append(out, c)
	}
	return out
}

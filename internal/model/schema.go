package model

import (
	"strconv"
	"strings"
)

// Mode is the healing strategy resolved for a file.
type Mode string

const (
	ModeSchema   Mode = "schema-specific"
	ModeSemantic Mode = "semantic"
	ModeGeneric  Mode = "generic"
)

// SchemaHeaders is the fixed canonical expense schema.
var SchemaHeaders = []string{
	"Employee Name",
	"Department",
	"Date",
	"Amount",
	"Currency",
	"Category",
	"Status",
	"Notes",
}

// SchemaWidth is the number of canonical columns.
const SchemaWidth = 8

// Canonical column positions.
const (
	ColName = iota
	ColDepartment
	ColDate
	ColAmount
	ColCurrency
	ColCategory
	ColStatus
	ColNotes
)

// SchemaRoles is the role each canonical column plays.
var SchemaRoles = []Role{
	RoleName,
	RoleDepartment,
	RoleDate,
	RoleAmount,
	RoleCurrency,
	RoleCategory,
	RoleStatus,
	RoleNotes,
}

// NormalizeHeaderForMatch lowercases and collapses whitespace. A stray BOM is
// dropped so a BOM-prefixed first header still matches.
func NormalizeHeaderForMatch(s string) string {
	s = strings.ReplaceAll(s, "\ufeff", "")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// IsSchemaHeader reports whether row is exactly the canonical header.
func IsSchemaHeader(row []string) bool {
	if len(row) != SchemaWidth {
		return false
	}
	for i, cell := range row {
		if NormalizeHeaderForMatch(cell) != NormalizeHeaderForMatch(SchemaHeaders[i]) {
			return false
		}
	}
	return true
}

// SchemaColumnLabel returns the canonical header for i, or a positional label
// for overflow columns.
func SchemaColumnLabel(i int) string {
	if i >= 0 && i < SchemaWidth {
		return SchemaHeaders[i]
	}
	return ColumnLabel(nil, i)
}

// ColumnLabel returns headers[i] or "[col N]" when i is out of range.
func ColumnLabel(headers []string, i int) string {
	if i >= 0 && i < len(headers) {
		return headers[i]
	}
	return "[col " + strconv.Itoa(i+1) + "]"
}

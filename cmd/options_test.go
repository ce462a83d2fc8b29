package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/semantic"
)

func TestTableFlags_Options(t *testing.T) {
	c := useTestConfig(t)
	rolesFile := writeFixture(t, "roles.yaml", "\"Txn Amt\": amount\n\"3\": currency\n")

	f := tableFlags{
		sheet:       "Q1",
		consolidate: true,
		headerRow:   2,
		rolesFile:   rolesFile,
		roles:       []string{"3=ignore", "Memo=notes"},
	}
	opts, err := f.options()
	require.NoError(t, err)

	assert.Equal(t, "Q1", opts.Sheet)
	assert.True(t, opts.Consolidate)
	assert.Equal(t, 2, opts.HeaderRow)
	assert.Equal(t, c.Heal.PreviewRows, opts.PreviewRows)
	assert.Equal(t, c.Limits.SkipExtrasRows, opts.SkipExtrasRows)
	assert.Equal(t, c.Limits.Loader(), opts.Limits)
	// Flags override the roles file.
	assert.Equal(t, semantic.Overrides{
		"Txn Amt": model.RoleAmount,
		"3":       model.RoleIgnore,
		"Memo":    model.RoleNotes,
	}, opts.Overrides)
}

func TestTableFlags_NoOverrides(t *testing.T) {
	useTestConfig(t)
	opts, err := (&tableFlags{}).options()
	require.NoError(t, err)
	assert.Empty(t, opts.Overrides)
}

func TestTableFlags_BadRole(t *testing.T) {
	useTestConfig(t)
	_, err := (&tableFlags{roles: []string{"nonsense"}}).options()
	require.Error(t, err)

	_, err = (&tableFlags{rolesFile: "does-not-exist.yaml"}).options()
	require.Error(t, err)
}

package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/loader"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"heal", "inspect", "profile", "runs", "serve", "version"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "sheet-doctor", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestHealCommand_Flags(t *testing.T) {
	for _, name := range []string{"sheet", "consolidate", "header-row", "roles", "role", "out", "format", "export-pg", "no-history"} {
		assert.NotNil(t, healCmd.Flags().Lookup(name), "heal should have --%s flag", name)
	}
	assert.Equal(t, "0", healCmd.Flags().Lookup("header-row").DefValue)
}

func TestInspectCommand_Flags(t *testing.T) {
	for _, name := range []string{"sheet", "consolidate", "header-row", "roles", "role"} {
		assert.NotNil(t, inspectCmd.Flags().Lookup(name), "inspect should have --%s flag", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"not found", loader.Errorf(loader.KindNotFound, "missing"), 2},
		{"empty", loader.Errorf(loader.KindEmptyInput, "empty"), 3},
		{"too large", loader.Errorf(loader.KindTooLarge, "big"), 4},
		{"ambiguous", loader.Errorf(loader.KindAmbiguousSelection, "sheets"), 5},
		{"unreadable", loader.Errorf(loader.KindUnreadableContainer, "zip"), 6},
		{"unsupported", loader.Errorf(loader.KindUnsupported, "pdf"), 6},
		{"wrapped", fmt.Errorf("heal x: %w", loader.Errorf(loader.KindTooLarge, "big")), 4},
		{"joined", errors.Join(errors.New("other"), loader.Errorf(loader.KindEmptyInput, "empty")), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

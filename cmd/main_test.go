package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/config"
	"github.com/sells-group/sheet-doctor/internal/store"
)

const expenseCSV = "Employee Name,Department,Date,Amount,Currency,Category,Status,Notes\n" +
	"Alice Smith,Engineering,15/03/2023,\"$1,200.00\",,Travel,approved,Taxi\n" +
	",,,,,,,\n"

// useTestConfig installs a default configuration for the duration of t.
func useTestConfig(t *testing.T) *config.Config {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Limits: config.LimitsConfig{
			WarningBytes:   50 << 20,
			DegradedBytes:  100 << 20,
			HardLimitBytes: 512 << 20,
			WarningRows:    100_000,
			DegradedRows:   250_000,
			HardLimitRows:  2_000_000,
			SkipExtrasRows: 10_000,
		},
		Heal: config.HealConfig{
			PreviewRows: 1000,
			Concurrency: 2,
			OutputDir:   t.TempDir(),
			Formats:     []string{"csv", "json"},
		},
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "runs.db"),
		},
		Fetch:  config.FetchConfig{TimeoutSecs: 5, MaxRetries: 1, UserAgent: "sheet-doctor-test"},
		Server: config.ServerConfig{Port: 8080, MaxUploadMB: 1},
	}
	t.Cleanup(func() { cfg = prev })
	return cfg
}

// writeFixture writes content to name in a temp dir and returns its path.
func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testStore opens a migrated store from the test config.
func testStore(t *testing.T) store.Store {
	t.Helper()
	st, err := initStore(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

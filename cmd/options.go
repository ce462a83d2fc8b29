package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sells-group/sheet-doctor/internal/fetcher"
	"github.com/sells-group/sheet-doctor/internal/heal"
	"github.com/sells-group/sheet-doctor/internal/semantic"
	"github.com/sells-group/sheet-doctor/internal/store"
)

// tableFlags are the load and role flags shared by heal, inspect and profile.
type tableFlags struct {
	sheet       string
	consolidate bool
	headerRow   int
	rolesFile   string
	roles       []string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.sheet, "sheet", "", "workbook sheet to read (required when a workbook has several)")
	fs.BoolVar(&f.consolidate, "consolidate", false, "concatenate all sheets that share the same header row")
	fs.IntVar(&f.headerRow, "header-row", 0, "1-based header row (default: detect)")
	fs.StringVar(&f.rolesFile, "roles", "", "YAML file mapping columns to semantic roles")
	fs.StringArrayVar(&f.roles, "role", nil, "force a column role, COLUMN=ROLE (repeatable)")
}

// overrides merges the roles file with the --role flags; flags win.
func (f *tableFlags) overrides() (semantic.Overrides, error) {
	var out semantic.Overrides
	if f.rolesFile != "" {
		loaded, err := semantic.LoadOverrides(f.rolesFile)
		if err != nil {
			return nil, err
		}
		out = out.Merge(loaded)
	}
	for _, r := range f.roles {
		key, role, err := semantic.ParseOverride(r)
		if err != nil {
			return nil, err
		}
		out = out.Merge(semantic.Overrides{key: role})
	}
	return out, nil
}

// options builds heal options from the flags and the loaded config.
func (f *tableFlags) options() (heal.Options, error) {
	overrides, err := f.overrides()
	if err != nil {
		return heal.Options{}, err
	}
	return heal.Options{
		Sheet:          f.sheet,
		Consolidate:    f.consolidate,
		HeaderRow:      f.headerRow,
		Overrides:      overrides,
		PreviewRows:    cfg.Heal.PreviewRows,
		SkipExtrasRows: cfg.Limits.SkipExtrasRows,
		Limits:         cfg.Limits.Loader(),
	}, nil
}

// newResolver returns the remote input resolver configured from cfg.
func newResolver() *fetcher.Resolver {
	return fetcher.NewResolver(fetcher.Options{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    cfg.Fetch.Timeout(),
		MaxRetries: cfg.Fetch.MaxRetries,
	})
}

// initStore opens and migrates the configured run history store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/sells-group/sheet-doctor/internal/header"
	"github.com/sells-group/sheet-doctor/internal/loader"
	"github.com/sells-group/sheet-doctor/internal/profile"
)

var profileTable tableFlags

var profileCmd = &cobra.Command{
	Use:   "profile <input>",
	Short: "Profile each column: detected type, nulls, ranges and suspected issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("inspect"); err != nil {
			return err
		}

		path, cleanup, err := newResolver().Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := profileFile(path, profileTable)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileTable.sheet, "sheet", "", "workbook sheet to read")
	profileCmd.Flags().BoolVar(&profileTable.consolidate, "consolidate", false, "concatenate all sheets that share the same header row")
	profileCmd.Flags().IntVar(&profileTable.headerRow, "header-row", 0, "1-based header row (default: detect)")
	rootCmd.AddCommand(profileCmd)
}

// profileFile loads path, finds its header and profiles the data rows.
func profileFile(path string, f tableFlags) (profile.Report, error) {
	loaded, err := loader.Load(path, loader.Options{
		Sheet:       f.sheet,
		Consolidate: f.consolidate,
		Limits:      cfg.Limits.Loader(),
	})
	if err != nil {
		return profile.Report{}, err
	}
	pre := header.Preprocess(loaded.Rows, f.headerRow)
	if len(pre.Rows) == 0 {
		return profile.Report{}, loader.Errorf(loader.KindEmptyInput, "No usable rows remain after preprocessing.")
	}
	headers, _ := header.NormalizeGeneric(pre.Rows[0], pre.HeaderRow())
	return profile.Analyse(headers, pre.Rows[1:]), nil
}

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/sells-group/sheet-doctor/internal/heal"
)

var inspectTable tableFlags

var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "Show the detected header, healing mode and column roles without healing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("inspect"); err != nil {
			return err
		}
		opts, err := inspectTable.options()
		if err != nil {
			return err
		}

		path, cleanup, err := newResolver().Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		in, err := heal.Inspect(path, opts)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(in)
	},
}

func init() {
	inspectTable.register(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}

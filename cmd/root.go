package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sheet-doctor/internal/config"
	"github.com/sells-group/sheet-doctor/internal/loader"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sheet-doctor",
	Short: "Heal messy spreadsheets into clean, quarantined and logged outputs",
	Long: "Loads CSV, TSV, text, Excel, ODS and JSON tables, detects headers and column roles, " +
		"repairs what is safe to repair, quarantines what is not, and logs every change.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch loader.KindOf(err) {
	case loader.KindNotFound:
		return 2
	case loader.KindEmptyInput:
		return 3
	case loader.KindTooLarge:
		return 4
	case loader.KindAmbiguousSelection:
		return 5
	case loader.KindUnreadableContainer, loader.KindUnsupported:
		return 6
	default:
		return 1
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

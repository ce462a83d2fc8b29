package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect healing run history",
	Long:  "Commands for listing and viewing recorded healing runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent healing runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		input, _ := cmd.Flags().GetString("input")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Input:  input,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its quarantine reason counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}
		formatRun(cmd.OutOrStdout(), run)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().String("input", "", "filter by input path or URL")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsShowCmd.Flags().Bool("json", false, "print the run as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tINPUT\tSTATUS\tMODE\tROWS\tCLEAN\tQUARANTINED\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-----\t------\t----\t----\t-----\t-----------\t-------\t--------")

	for _, r := range runs {
		input := r.Input
		if len(input) > 30 {
			input = "..." + input[len(input)-27:]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			input,
			r.Status,
			r.Mode,
			r.RowsIn,
			r.Clean,
			r.Quarantined,
			r.StartedAt.Format("2006-01-02 15:04"),
			runDuration(r),
		)
	}
	_ = w.Flush()
}

// formatRun writes the details of one run to out.
func formatRun(out io.Writer, r *model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", r.ID)
	_, _ = fmt.Fprintf(w, "Input:\t%s\n", r.Input)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", r.Status)
	if r.Mode != "" {
		_, _ = fmt.Fprintf(w, "Mode:\t%s\n", r.Mode)
	}
	_, _ = fmt.Fprintf(w, "Rows in:\t%d\n", r.RowsIn)
	_, _ = fmt.Fprintf(w, "Clean:\t%d\n", r.Clean)
	_, _ = fmt.Fprintf(w, "Quarantined:\t%d\n", r.Quarantined)
	_, _ = fmt.Fprintf(w, "Duplicates removed:\t%d\n", r.Removed)
	_, _ = fmt.Fprintf(w, "Modified:\t%d\n", r.Modified)
	_, _ = fmt.Fprintf(w, "Needs review:\t%d\n", r.NeedsReview)
	_, _ = fmt.Fprintf(w, "Degraded:\t%t\n", r.Degraded)
	_, _ = fmt.Fprintf(w, "Started:\t%s\n", r.StartedAt.Format(time.RFC3339))
	if r.FinishedAt != nil {
		_, _ = fmt.Fprintf(w, "Finished:\t%s (%s)\n", r.FinishedAt.Format(time.RFC3339), runDuration(*r))
	}
	if r.Error != "" {
		_, _ = fmt.Fprintf(w, "Error:\t%s\n", r.Error)
	}
	if len(r.ReasonCounts) > 0 {
		_, _ = fmt.Fprintln(w, "Quarantine reasons:")
		reasons := make([]string, 0, len(r.ReasonCounts))
		for reason := range r.ReasonCounts {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			_, _ = fmt.Fprintf(w, "  %s\t%d\n", reason, r.ReasonCounts[reason])
		}
	}
	_ = w.Flush()
}

// runDuration is the run's wall time, or "-" while it is still running.
func runDuration(r model.Run) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

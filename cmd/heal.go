package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/sheet-doctor/internal/db"
	"github.com/sells-group/sheet-doctor/internal/fetcher"
	"github.com/sells-group/sheet-doctor/internal/heal"
	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/store"
	"github.com/sells-group/sheet-doctor/internal/writer"
)

var (
	healTable     tableFlags
	healOut       string
	healFormats   []string
	healExportPG  bool
	healNoHistory bool
)

var healCmd = &cobra.Command{
	Use:   "heal <input>...",
	Short: "Heal one or more tables",
	Long: "Heals each input (a local path or an http, https or ftp URL) and writes clean, " +
		"quarantine and change log outputs. Inputs are healed concurrently; a failed input " +
		"does not stop the others.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("heal"); err != nil {
			return err
		}
		if healExportPG {
			if err := cfg.Validate("export"); err != nil {
				return err
			}
		}

		opts, err := healTable.options()
		if err != nil {
			return err
		}

		h := &healer{
			opts:     opts,
			outDir:   healOut,
			formats:  healFormats,
			resolver: newResolver(),
		}
		if h.outDir == "" {
			h.outDir = cfg.Heal.OutputDir
		}
		if len(h.formats) == 0 {
			h.formats = cfg.Heal.Formats
		}

		if !healNoHistory {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			h.store = st
		}

		if healExportPG {
			pool, err := db.Connect(ctx, cfg.Export.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			h.exporter = db.NewExporter(pool, cfg.Export.Schema)
		}

		outcomes := h.runAll(ctx, args, cfg.Heal.Concurrency)
		return reportOutcomes(cmd.OutOrStdout(), outcomes)
	},
}

func init() {
	healTable.register(healCmd)
	healCmd.Flags().StringVar(&healOut, "out", "", "output directory (default from config)")
	healCmd.Flags().StringSliceVar(&healFormats, "format", nil, "output formats: csv, xlsx, json (default from config)")
	healCmd.Flags().BoolVar(&healExportPG, "export-pg", false, "copy the results into Postgres (export.database_url)")
	healCmd.Flags().BoolVar(&healNoHistory, "no-history", false, "do not record the run in the history store")
	rootCmd.AddCommand(healCmd)
}

// healer heals inputs and routes their results to outputs, history and export.
type healer struct {
	opts     heal.Options
	outDir   string
	formats  []string
	resolver *fetcher.Resolver
	store    store.Store  // nil with --no-history
	exporter *db.Exporter // nil without --export-pg
}

// healOutcome is the result of healing one input.
type healOutcome struct {
	Input   string
	RunID   string
	Mode    model.Mode
	Summary heal.Summary
	Files   []string
	Err     error
}

// runAll heals inputs with at most concurrency in flight. Outcomes are
// returned in input order.
func (h *healer) runAll(ctx context.Context, inputs []string, concurrency int) []healOutcome {
	if concurrency < 1 {
		concurrency = 1
	}
	outcomes := make([]healOutcome, len(inputs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, input := range inputs {
		g.Go(func() error {
			outcomes[i] = h.run(ctx, input)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// run heals a single input, recording it in the history store when one is
// configured.
func (h *healer) run(ctx context.Context, input string) healOutcome {
	out := healOutcome{Input: input}

	var run *model.Run
	if h.store != nil {
		r, err := h.store.CreateRun(ctx, input)
		if err != nil {
			out.Err = err
			return out
		}
		run = r
		out.RunID = r.ID
	} else {
		out.RunID = uuid.NewString()
	}

	res, files, err := h.heal(ctx, input, out.RunID)
	out.Files = files
	if err != nil {
		out.Err = err
		if run != nil {
			if ferr := h.store.FailRun(ctx, run.ID, err.Error()); ferr != nil {
				zap.L().Warn("heal: record failed run", zap.String("run_id", run.ID), zap.Error(ferr))
			}
		}
		zap.L().Error("heal: input failed", zap.String("input", input), zap.Error(err))
		return out
	}

	out.Mode = res.Mode
	out.Summary = res.Summary()
	if run != nil {
		res.Record(run)
		if err := h.store.CompleteRun(ctx, run); err != nil {
			zap.L().Warn("heal: record run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	zap.L().Info("heal: input healed",
		zap.String("input", input),
		zap.String("run_id", out.RunID),
		zap.String("mode", string(res.Mode)),
		zap.Int("clean", out.Summary.Clean),
		zap.Int("quarantined", out.Summary.Quarantined),
	)
	return out
}

func (h *healer) heal(ctx context.Context, input, runID string) (*heal.Result, []string, error) {
	path, cleanup, err := h.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	res, err := heal.Heal(path, h.opts)
	if err != nil {
		return nil, nil, err
	}
	res.RunID = runID
	res.Source.Path = input

	files, err := writer.Write(res, h.outDir, writer.Stem(input), h.formats)
	if err != nil {
		return nil, files, err
	}

	if h.exporter != nil {
		if _, err := h.exporter.Export(ctx, runID, res); err != nil {
			return nil, files, eris.Wrap(err, "heal: export to postgres")
		}
	}
	return res, files, nil
}

// reportOutcomes prints one block per input and returns the joined errors of
// the failed inputs.
func reportOutcomes(w io.Writer, outcomes []healOutcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			_, _ = fmt.Fprintf(w, "%s: FAILED: %v\n", o.Input, o.Err)
			errs = append(errs, fmt.Errorf("heal %s: %w", o.Input, o.Err))
			continue
		}
		s := o.Summary
		_, _ = fmt.Fprintf(w, "%s: %s mode, %s rows in, %s clean, %s quarantined, %s duplicates removed, %s changes (run %s)\n",
			o.Input,
			o.Mode,
			humanize.Comma(int64(s.RowsIn)),
			humanize.Comma(int64(s.Clean)),
			humanize.Comma(int64(s.Quarantined)),
			humanize.Comma(int64(s.Removed)),
			humanize.Comma(int64(s.Changes)),
			o.RunID,
		)
		if len(o.Files) > 0 {
			_, _ = fmt.Fprintf(w, "  wrote %s\n", strings.Join(o.Files, ", "))
		}
	}
	if len(errs) > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "%d of %d inputs failed\n", len(errs), len(outcomes))
	}
	return errors.Join(errs...)
}

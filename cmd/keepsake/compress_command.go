package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"keepsake/internal/config"
	"keepsake/internal/deps"
	"keepsake/internal/history"
	"keepsake/internal/logging"
	"keepsake/internal/notifications"
	"keepsake/internal/pipeline"
	"keepsake/internal/staging"
)

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "compress SRC DEST [PASSWORD]",
		Short: "Convert and archive every file under SRC into DEST",
		Long: "Walks SRC and writes one 7z archive plus a .hash sidecar per file under DEST.\n" +
			"Unchanged files are skipped. The password falls back to $KEEPSAKE_ARCHIVE_PASSWORD;\n" +
			"without one the archives are not encrypted.",
		Args: usageArgs(cobra.RangeArgs(2, 3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if !skipCheck {
				if missing := deps.Missing(deps.CheckBinaries(deps.FromConfig(cfg))); len(missing) > 0 {
					names := make([]string, 0, len(missing))
					for _, status := range missing {
						names = append(names, status.Command)
					}
					return fmt.Errorf("missing required tools: %s (run `keepsake doctor`)", strings.Join(names, ", "))
				}
			}

			password := config.PasswordFromEnv()
			if len(args) == 3 {
				password = args[2]
			}

			if hours := cfg.Pipeline.StaleScratchHours; hours > 0 {
				staging.CleanStale(cmd.Context(), cfg.Paths.TempDir, time.Duration(hours)*time.Hour, logger)
			}

			observers, closeHistory := ctx.runObservers(cmd, logger)
			defer closeHistory()
			if svc := notifications.NewService(cfg); notifications.Enabled(svc) {
				observers = append(observers, notifications.NewObserver(svc, logger))
			}

			runner := pipeline.NewFromConfig(cfg, logger, pipeline.WithObserver(observers))
			stats, runErr := runner.Compress(cmd.Context(), pipeline.Options{
				Source:   args[0],
				Dest:     args[1],
				Password: password,
			})
			if stats.RunID == "" {
				return runErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
			if runErr != nil {
				return runErr
			}
			if stats.Failed > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d file(s) failed; see the log for details\n", stats.Failed)
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipCheck, "skip-tool-check", false, "Do not check that external tools are installed")
	return cmd
}

func newCopyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "copy SRC DEST [PASSWORD]",
		Short: "Count the files under SRC (no data is copied)",
		Long:  "Count the files under SRC. PASSWORD is accepted so copy takes the same arguments as compress, and is ignored.",
		Args:  usageArgs(cobra.RangeArgs(2, 3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			observers, closeHistory := ctx.runObservers(cmd, logger)
			defer closeHistory()

			runner := pipeline.NewFromConfig(cfg, logger, pipeline.WithObserver(observers))
			stats, err := runner.Copy(cmd.Context(), pipeline.Options{Source: args[0], Dest: args[1]})
			if stats.RunID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%d files found\n", stats.Total)
			}
			return err
		},
	}
}

// runObservers assembles the progress bar and history recorder for a run.
// The returned func closes the history store.
func (c *commandContext) runObservers(cmd *cobra.Command, logger *slog.Logger) (pipeline.Observers, func()) {
	var observers pipeline.Observers
	if progressEnabled(cmd.ErrOrStderr(), c.flags.noProgress) {
		observers = append(observers, newProgressObserver(cmd.ErrOrStderr()))
	}

	closeFn := func() {}
	if c.config.History.Enabled {
		store, err := history.Open(c.config.Paths.HistoryDB)
		if err != nil {
			logger.Warn("run history unavailable", logging.Error(err))
		} else {
			observers = append(observers, history.NewRecorder(store, logger))
			closeFn = func() { _ = store.Close() }
		}
	}
	return observers, closeFn
}

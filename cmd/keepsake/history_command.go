package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"keepsake/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		file       string
		failedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "Show past runs, or the files of one run",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("run history is disabled (history.enabled = false)")
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			switch {
			case file != "":
				entries, err := store.FileHistory(cmd.Context(), file)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintf(out, "No history for %s\n", file)
					return nil
				}
				fmt.Fprintln(out, renderFileEntries(entries, true))
				return nil

			case len(args) == 1:
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				entries, err := store.RunFiles(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if failedOnly {
					entries = filterFailed(entries)
				}
				fmt.Fprintln(out, renderRunDetail(*run))
				if len(entries) > 0 {
					fmt.Fprintln(out, renderFileEntries(entries, false))
				}
				return nil

			default:
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderRuns(runs))
				return nil
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 for all)")
	cmd.Flags().StringVar(&file, "file", "", "Show every recorded outcome for a source-relative path")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only list failed files of the run")
	return cmd
}

func renderRuns(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			formatTime(run.StartedAt),
			run.Mode,
			run.Source,
			strconv.Itoa(run.Total),
			strconv.Itoa(run.Processed),
			strconv.Itoa(run.Skipped),
			strconv.Itoa(run.Failed),
			formatBytes(run.ArchiveBytes),
			runState(run),
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Mode", "Source", "Files", "Done", "Skipped", "Failed", "Archived", "State"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func renderRunDetail(run history.Run) string {
	rows := [][]string{
		{"Run", run.ID},
		{"Mode", run.Mode},
		{"Source", run.Source},
		{"Destination", run.Dest},
		{"Workers", strconv.Itoa(run.Workers)},
		{"Started", formatTime(run.StartedAt)},
		{"Finished", formatTime(run.FinishedAt)},
		{"State", runState(run)},
		{"Files", strconv.Itoa(run.Total)},
		{"Processed", strconv.Itoa(run.Processed)},
		{"Skipped", strconv.Itoa(run.Skipped)},
		{"Failed", strconv.Itoa(run.Failed)},
		{"Converted", strconv.Itoa(run.Converted)},
		{"Conversion fallbacks", strconv.Itoa(run.ConversionFallbacks)},
		{"Source size", formatBytes(run.SourceBytes)},
		{"Archive size", formatBytes(run.ArchiveBytes)},
		{"Wall time", formatDuration(run.WallTime)},
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func renderFileEntries(entries []history.FileEntry, withRun bool) string {
	headers := []string{"#", "File", "State", "Reason", "Kind", "Source", "Archive", "Error"}
	if withRun {
		headers = append([]string{"Run"}, headers...)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		kind := e.Kind
		if e.Converted {
			kind += " (converted)"
		} else if e.Fallback {
			kind += " (fallback)"
		}
		errText := e.Error
		if e.FailureKind != "" {
			errText = e.FailureKind + ": " + errText
		}
		row := []string{
			strconv.Itoa(e.Seq),
			e.RelPath,
			e.State,
			e.Reason,
			kind,
			formatBytes(e.SourceBytes),
			formatBytes(e.ArchiveBytes),
			errText,
		}
		if withRun {
			row = append([]string{shortID(e.RunID)}, row...)
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, nil)
}

func filterFailed(entries []history.FileEntry) []history.FileEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.State == "failed" {
			out = append(out, e)
		}
	}
	return out
}

func runState(run history.Run) string {
	switch {
	case !run.Finished():
		return "incomplete"
	case run.Interrupted:
		return "interrupted"
	case run.Failed > 0:
		return "failures"
	default:
		return "ok"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

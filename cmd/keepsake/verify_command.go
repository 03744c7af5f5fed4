package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"keepsake/internal/config"
	"keepsake/internal/services/sevenzip"
	"keepsake/internal/verify"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var (
		source   string
		deep     bool
		password string
	)

	cmd := &cobra.Command{
		Use:   "verify DEST",
		Short: "Recompute archive hashes under DEST and compare them to the sidecars",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if strings.TrimSpace(password) == "" {
				password = config.PasswordFromEnv()
			}

			verifier := verify.New(sevenzip.New(cfg.Tools.SevenZip), cfg.Pipeline.Workers, logger)
			report, err := verifier.Run(cmd.Context(), verify.Options{
				Dest:     args[0],
				Source:   source,
				Password: password,
				Deep:     deep,
			})
			if err != nil && report.Checked == 0 {
				return err
			}

			out := cmd.OutOrStdout()
			if len(report.Findings) > 0 {
				rows := make([][]string, 0, len(report.Findings))
				for _, f := range report.Findings {
					rows = append(rows, []string{f.Rel, string(f.Problem), f.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"File", "Problem", "Detail"}, rows, nil))
			}
			fmt.Fprintf(out, "Checked %d archives (%s): %d ok, %d mismatched, %d missing, %d orphaned\n",
				report.Checked,
				formatBytes(report.ArchiveBytes),
				report.OK,
				report.Count(verify.ProblemMismatch),
				report.Count(verify.ProblemMissingArchive),
				report.Count(verify.ProblemOrphan),
			)
			if err != nil {
				return err
			}
			if !report.Healthy() {
				return errReported
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Original source tree, to list sidecars whose file is gone")
	cmd.Flags().BoolVar(&deep, "deep", false, "Also run 7z's integrity test on every archive")
	cmd.Flags().StringVar(&password, "password", "", "Archive password for --deep (defaults to $KEEPSAKE_ARCHIVE_PASSWORD)")
	return cmd
}

package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"keepsake/internal/deps"
	"keepsake/internal/staging"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the configured external tools are installed",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			configPath := ctx.configPath
			configKind := statusOK
			if configPath == "" {
				configPath = "defaults"
				configKind = statusInfo
			}
			fmt.Fprintln(out, renderStatusLine("Config", configKind, configPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Image", statusInfo, "enabled: "+yesNo(cfg.Image.Enabled), colorize))
			videoDetail := "enabled: " + yesNo(cfg.Video.Enabled)
			if cfg.Video.Enabled {
				videoDetail += ", encoder: " + cfg.Video.Encoder
			}
			fmt.Fprintln(out, renderStatusLine("Video", statusInfo, videoDetail, colorize))
			fmt.Fprintln(out, renderStatusLine("History", statusInfo, "enabled: "+yesNo(cfg.History.Enabled), colorize))
			notify := "disabled"
			if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
				notify = "ntfy: " + topic
			}
			fmt.Fprintln(out, renderStatusLine("Notifications", statusInfo, notify, colorize))
			fmt.Fprintln(out, renderScratchLine(cfg.Paths.TempDir, colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			statuses := deps.CheckBinaries(deps.FromConfig(cfg))
			for _, status := range statuses {
				kind := statusOK
				detail := status.Path
				switch {
				case !status.Available && status.Optional:
					kind = statusWarn
					detail = status.Detail + " (optional)"
				case !status.Available:
					kind = statusError
					detail = status.Detail
				}
				if status.Description != "" {
					detail += " - " + status.Description
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, detail, colorize))
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				fmt.Fprintf(out, "\n%d required tool(s) missing\n", len(missing))
				return errReported
			}
			fmt.Fprintln(out, "\nAll required tools found")
			return nil
		},
	}
}

// renderScratchLine reports scratch directories left behind in tempDir.
func renderScratchLine(tempDir string, colorize bool) string {
	dirs, err := staging.ListDirectories(tempDir)
	if err != nil {
		return renderStatusLine("Scratch", statusWarn, err.Error(), colorize)
	}
	if len(dirs) == 0 {
		return renderStatusLine("Scratch", statusOK, tempDir+" (clean)", colorize)
	}
	var total int64
	for _, d := range dirs {
		total += d.Size
	}
	detail := fmt.Sprintf("%s (%d leftover, %s)", tempDir, len(dirs), humanize.IBytes(uint64(total)))
	return renderStatusLine("Scratch", statusWarn, detail, colorize)
}

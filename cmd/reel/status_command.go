package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reel/internal/daemonctl"
	"reel/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, stage, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			statusResp, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, statusResp)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if statusResp.Running {
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", statusResp.PID), colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "Not running", colorize))
			}
			if statusResp.LastError != "" {
				fmt.Fprintln(stdout, renderStatusLine("Last error", statusError, statusResp.LastError, colorize))
			}
			if statusResp.QueueDBPath != "" {
				fmt.Fprintln(stdout, renderStatusLine("Queue database", statusInfo, statusResp.QueueDBPath, colorize))
			}
			if item := statusResp.LastItem; item != nil {
				detail := fmt.Sprintf("#%d %s (%s)", item.ID, item.Title, formatStatusLabel(item.Status))
				fmt.Fprintln(stdout, renderStatusLine("Last item", statusInfo, detail, colorize))
			}
			fmt.Fprintln(stdout)

			if len(statusResp.StageHealth) > 0 {
				for _, line := range renderSectionHeader("Stage Health", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, stage := range statusResp.StageHealth {
					kind := statusOK
					if !stage.Ready {
						kind = statusWarn
					}
					fmt.Fprintln(stdout, renderStatusLine(formatStatusLabel(stage.Name), kind, stage.Detail, colorize))
				}
				fmt.Fprintln(stdout)
			}

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(statusResp.Dependencies, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Queue Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := buildQueueStatusRows(statusResp.QueueStats)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "Queue is empty")
				return nil
			}
			table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
			fmt.Fprint(stdout, table)
			return nil
		},
	}
}

func dependencyLines(deps []ipc.DependencyStatus, colorize bool) []string {
	lines := make([]string, 0, len(deps)+1)
	missing := make([]string, 0)
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		lines = append(lines, renderStatusLine(dep.Name, statusKindFromSeverity(dep.Severity), detail, colorize))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

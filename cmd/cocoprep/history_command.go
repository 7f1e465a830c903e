package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cocoprep/internal/history"
)

const defaultHistoryLimit = 20

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent job runs recorded for the dataset root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = defaultHistoryLimit
			}
			store, err := history.Open(cfg.StateDir())
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			headers := []string{"Started", "Job", "Status", "Duration", "Summary", "Invocation"}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Job,
					historyStatus(run),
					formatDuration(run.Duration()),
					run.Summary,
					shortID(run.InvocationID),
				})
			}
			fmt.Fprintln(out, renderTable(headers, rows, numericAligns(headers), isTerminal(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Number of runs to show")
	return cmd
}

func historyStatus(run history.Run) string {
	status := string(run.Status)
	if run.ErrorMessage != "" {
		status += ": " + truncate(run.ErrorMessage, 60)
	}
	return status
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

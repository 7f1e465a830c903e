package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"cocoprep/internal/workflow"
)

// maxSkippedLines bounds the skipped-input list printed after a run; the log
// carries the rest.
const maxSkippedLines = 20

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printResults(out io.Writer, results []workflow.Result, rounded bool) {
	for _, result := range results {
		outcome := result.Outcome
		fmt.Fprintf(out, "%s: %s\n", result.Job, outcome.Summary)
		if len(outcome.Header) == 0 || len(outcome.Rows) == 0 {
			continue
		}
		fmt.Fprintln(out, renderTable(outcome.Header, outcome.Rows, numericAligns(outcome.Header), rounded))
	}
}

func printSkipped(out io.Writer, skipped []string) {
	fmt.Fprintf(out, "Skipped inputs (%d):\n", len(skipped))
	for i, entry := range skipped {
		if i == maxSkippedLines {
			fmt.Fprintf(out, "  ... and %d more\n", len(skipped)-maxSkippedLines)
			break
		}
		fmt.Fprintf(out, "  - %s\n", entry)
	}
}

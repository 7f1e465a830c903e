// Package stage defines the contract every cocoprep job implements.
package stage

import "context"

// Handler is one job of the pipeline.
type Handler interface {
	Name() string
	Execute(context.Context) (Outcome, error)
}

// Outcome is what a job reports back for the ledger and the summary table.
type Outcome struct {
	// Summary is a one-line description stored in the run ledger.
	Summary string
	// Skipped lists inputs the job had to leave out.
	Skipped []string
	Header  []string
	Rows    [][]string
}

// HasSkipped reports whether any input was left out.
func (o Outcome) HasSkipped() bool { return len(o.Skipped) > 0 }

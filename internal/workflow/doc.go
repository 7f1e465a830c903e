// Package workflow wires the cocoprep jobs to configuration and runs them in
// pipeline order.
//
// Each job (reorganize, fix-splits, convert) is a stage.Handler built from the
// loaded config. Pipeline.Run executes the requested jobs one after another
// through stageexec so every job is logged and recorded in the run ledger;
// the first failing job stops the pipeline. Jobs that complete but leave
// inputs behind report them in their Outcome, and the CLI turns that into the
// skipped exit status.
package workflow

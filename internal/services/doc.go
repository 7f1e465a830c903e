// Package services defines shared plumbing consumed by the dataset jobs and
// the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, job names, categories, and splits
//     for logging.
//   - Structured error markers plus the Wrap helper that let the CLI map a
//     failure to an exit status without string matching.
//
// Use these helpers when wiring new job logic so operational behaviour (error
// classification, observability) stays uniform across the tool.
package services

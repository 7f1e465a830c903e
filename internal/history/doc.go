// Package history keeps a ledger of job runs in a SQLite database under the
// state directory.
//
// Each job execution inserts a row when it starts and updates it when it
// finishes with a status, a one-line summary, and the error text if any. The
// `history` command reads the most recent rows back. The schema carries a
// version row; a mismatch asks the operator to delete the ledger, which only
// holds diagnostics.
package history

// Package preflight checks the filesystem before a job touches it.
//
// Jobs call RunAll with their name; a failed required check stops the job
// before any file is written. `config validate` prints the same results as a
// table. Optional checks (raw source folders, the shared split directory)
// only inform: the jobs skip what is missing.
package preflight

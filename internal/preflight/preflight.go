package preflight

import (
	"fmt"
	"strings"

	"cocoprep/internal/config"
	"cocoprep/internal/services"
)

// Job names accepted by RunAll.
const (
	JobReorganize = "reorganize"
	JobFixSplits  = "fix-splits"
	JobConvert    = "convert"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the checks relevant to job. An unknown job runs every check.
func RunAll(cfg *config.Config, job string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	all := job != JobReorganize && job != JobFixSplits && job != JobConvert

	if job == JobConvert {
		results = append(results, CheckDirectoryReadable("Dataset root", cfg.Paths.Root))
	} else {
		results = append(results, CheckDirectoryAccess("Dataset root", cfg.Paths.Root))
	}

	if job == JobReorganize || all {
		for _, src := range cfg.Sources {
			r := CheckDirectoryReadable(fmt.Sprintf("Source %s", src.Category), cfg.SourceDir(src))
			r.Optional = true
			results = append(results, r)
		}
	}
	if job == JobReorganize || job == JobFixSplits || all {
		r := CheckDirectoryReadable("Shared splits", cfg.AllDir())
		r.Optional = true
		results = append(results, r)
	}
	if job == JobConvert || all {
		results = append(results, CheckDirectoryCreatable("Export directory", cfg.OutDir()))
	}
	results = append(results, CheckDirectoryCreatable("State directory", cfg.StateDir()))
	return results
}

// Failures returns an error marked services.ErrConfiguration listing every
// failed required check, or nil.
func Failures(job string, results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, job, "preflight", strings.Join(failed, "; "), nil)
}

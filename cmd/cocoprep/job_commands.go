package main

import (
	"strings"

	"github.com/spf13/cobra"

	"cocoprep/internal/config"
	"cocoprep/internal/preflight"
	"cocoprep/internal/services"
	"cocoprep/internal/workflow"
)

func newReorganizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reorganize",
		Short: "Copy raw category folders into the canonical dataset layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runJobs(cmd, []string{preflight.JobReorganize})
		},
	}
}

func newFixSplitsCommand(ctx *commandContext) *cobra.Command {
	var allDir string

	cmd := &cobra.Command{
		Use:   "fix-splits",
		Short: "Rewrite per-category split lists to canonical image stems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []workflow.Option
			if dir := strings.TrimSpace(allDir); dir != "" {
				expanded, err := config.ExpandPath(dir)
				if err != nil {
					return services.Wrap(services.ErrConfiguration, preflight.JobFixSplits, "resolve --all", "", err)
				}
				opts = append(opts, workflow.WithAllDir(expanded))
			}
			return ctx.runJobs(cmd, []string{preflight.JobFixSplits}, opts...)
		},
	}

	cmd.Flags().StringVar(&allDir, "all", "", "Directory holding the shared train/val/test lists (default <root>/all)")
	return cmd
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir     string
		categories []string
		splits     []string
		combined   bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Export COCO instance files per category and split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if out := strings.TrimSpace(outDir); out != "" {
				expanded, err := config.ExpandPath(out)
				if err != nil {
					return services.Wrap(services.ErrConfiguration, preflight.JobConvert, "resolve --out", "", err)
				}
				cfg.Paths.Out = expanded
			}
			if cmd.Flags().Changed("categories") {
				cfg.Convert.Categories = splitList(categories)
			}
			if cmd.Flags().Changed("splits") {
				cfg.Convert.Splits = splitList(splits)
			}
			if cmd.Flags().Changed("combined") {
				cfg.Convert.Combined = combined
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return ctx.runJobs(cmd, []string{preflight.JobConvert})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&outDir, "out", "", "Export directory (default <root>/annotations)")
	flags.StringSliceVar(&categories, "categories", nil, "Categories to export (default from convert.categories)")
	flags.StringSliceVar(&splits, "splits", nil, "Splits to export (default from convert.splits)")
	flags.BoolVar(&combined, "combined", false, "Also write merged combined_instances_<split>.json files")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var combined bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run reorganize, fix-splits and convert in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("combined") {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				cfg.Convert.Combined = combined
			}
			return ctx.runJobs(cmd, workflow.Order)
		},
	}

	cmd.Flags().BoolVar(&combined, "combined", false, "Also write merged combined exports")
	return cmd
}

// listFlags take one or more bare values ("--categories oranges backgrounds").
var listFlags = map[string]bool{"--categories": true, "--splits": true}

// expandListFlags rewrites "--categories a b" into "--categories a
// --categories b" so the names after a list flag reach it instead of
// landing as positional arguments. Collection stops at the next token that
// starts with "-".
func expandListFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		out = append(out, arg)
		if arg == "--" {
			return append(out, args[i+1:]...)
		}
		if !listFlags[arg] || i+1 >= len(args) {
			continue
		}
		out = append(out, args[i+1])
		i++
		for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, arg, args[i+1])
			i++
		}
	}
	return out
}

// splitList accepts both repeated flags and space separated values
// ("--categories oranges --categories backgrounds" or "--categories 'oranges backgrounds'").
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		out = append(out, strings.Fields(value)...)
	}
	return out
}

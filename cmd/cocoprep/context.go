package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cocoprep/internal/config"
	"cocoprep/internal/history"
	"cocoprep/internal/logging"
	"cocoprep/internal/runlock"
	"cocoprep/internal/services"
	"cocoprep/internal/workflow"
)

type globalFlags struct {
	config    string
	root      string
	logLevel  string
	logFormat string
	strict    bool
}

type commandContext struct {
	flags         *globalFlags
	strictChanged bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if err := c.applyOverrides(cfg); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) applyOverrides(cfg *config.Config) error {
	if root := strings.TrimSpace(c.flags.root); root != "" {
		if err := cfg.SetRoot(root); err != nil {
			return services.Wrap(services.ErrConfiguration, "", "apply --root", "", err)
		}
	}
	if level := strings.TrimSpace(c.flags.logLevel); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
	if format := strings.TrimSpace(c.flags.logFormat); format != "" {
		cfg.Logging.Format = strings.ToLower(format)
	}
	if c.strictChanged {
		cfg.Run.Strict = c.flags.strict
	}
	return cfg.Validate()
}

func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "build logger", "", err)
	}
	return logger, nil
}

// runJobs executes the named jobs under the dataset lock, records them in the
// run ledger and prints a summary table per job.
func (c *commandContext) runJobs(cmd *cobra.Command, names []string, opts ...workflow.Option) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := requireRoot(cfg.Paths.Root); err != nil {
		return err
	}
	logger, err := c.logger(cfg)
	if err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release run lock", logging.Error(err))
		}
	}()

	store, err := history.Open(cfg.StateDir())
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	invocationID := uuid.NewString()
	ctx = services.WithRunID(ctx, invocationID)

	pipelineOpts := append([]workflow.Option{
		workflow.WithLedger(store),
		workflow.WithInvocationID(invocationID),
	}, opts...)
	pipeline := workflow.New(cfg, afero.NewOsFs(), logger, pipelineOpts...)

	results, runErr := pipeline.Run(ctx, names...)
	out := cmd.OutOrStdout()
	printResults(out, results, isTerminal(out))
	if runErr != nil {
		return runErr
	}

	skipped := workflow.Skipped(results)
	if len(skipped) == 0 {
		return nil
	}
	printSkipped(out, skipped)
	if !cfg.Run.Strict {
		return nil
	}
	return services.Wrap(services.ErrSkipped, strings.Join(names, ", "), "",
		fmt.Sprintf("%d inputs skipped", len(skipped)), nil)
}

func requireRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrConfiguration, "", "dataset root",
				fmt.Sprintf("%s does not exist", root), nil)
		}
		return fmt.Errorf("stat dataset root: %w", err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "", "dataset root",
			fmt.Sprintf("%s is not a directory", root), nil)
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations != nil && current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

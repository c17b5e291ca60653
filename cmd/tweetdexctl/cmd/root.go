// Package cmd provides the CLI commands for tweetdexctl.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/app"
	"github.com/kailas-cloud/tweetdex/internal/config"
	logpkg "github.com/kailas-cloud/tweetdex/internal/logger"
	"github.com/kailas-cloud/tweetdex/internal/version"
)

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	env      string
	logLevel string
}

// NewRootCmd creates the root command for the tweetdexctl CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "tweetdexctl",
		Short: "Manage and query the tweet search index",
		Long: `tweetdexctl initializes the Redis search index, ingests tweet dumps
and runs hybrid searches (full-text + semantic, reranked by an LLM judge)
from the command line.

Configuration is read from config/<env>.yaml.`,
		Version:      version.Version,
		SilenceUsage: true,
	}

	cmd.SetVersionTemplate("tweetdexctl version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "Config environment (reads config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newInitCmd(opts),
		newIngestCmd(opts),
		newSearchCmd(opts),
		newStatsCmd(opts),
		newShowCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the root command with a signal-aware context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// withApp loads config, builds the services and runs fn with them.
func withApp(ctx context.Context, opts *globalOptions, fn func(ctx context.Context, a *app.App, logger *zap.Logger) error) error {
	cfg, err := config.Load(opts.env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(opts.env, opts.logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(logpkg.ContextWithLogger(ctx, logger), a, logger)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/app"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	var recreate bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the tweet search index",
		Long: `Create the Redis full-text + vector index over tweet hashes.

Idempotent: an existing index is left alone unless --recreate is given.
Recreating drops only the index definition; stored tweets are re-indexed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App, _ *zap.Logger) error {
				if recreate {
					if err := a.Tweets.RecreateIndex(ctx); err != nil {
						return fmt.Errorf("recreate index: %w", err)
					}
				} else if _, err := a.Tweets.EnsureIndex(ctx); err != nil {
					return fmt.Errorf("ensure index: %w", err)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Init complete.")
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&recreate, "recreate", false, "Drop and recreate the index")

	return cmd
}

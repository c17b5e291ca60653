package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/app"
	domtweet "github.com/kailas-cloud/tweetdex/internal/domain/tweet"
)

func newShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <tweet-id>",
		Short: "Print a stored tweet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App, _ *zap.Logger) error {
				t, err := a.TweetSvc.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printTweet(cmd.OutOrStdout(), &t)
			})
		},
	}
}

func printTweet(w io.Writer, t *domtweet.Tweet) error {
	_, err := fmt.Fprintf(w, "id:         %s\ncreated_at: %s\nlang:       %s\nretweet:    %t\nmedia:      %t\nembedding:  %d dims\n\n%s\n",
		t.ID(), t.CreatedAt().UTC().Format("2006-01-02 15:04:05"), t.Lang(),
		t.IsRetweet(), t.HasMedia(), len(t.Embedding()), t.Text())
	return err
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/app"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/candidate"
)

const defaultCLIK = 10

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid search",
		Long: `Fetch full-text and semantic candidates, let the LLM judge score them
and print the top results as "date | score | id | text".

Examples:
  tweetdexctl search "inflación"
  tweetdexctl search "dólar blue" --k 5
  tweetdexctl search "ajuste or motosierra -kirchner"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query must not be empty")
			}
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App, _ *zap.Logger) error {
				ranked, err := a.Search.Search(ctx, query, k)
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				return printResults(cmd.OutOrStdout(), ranked)
			})
		},
	}

	cmd.Flags().IntVar(&k, "k", defaultCLIK, "Number of results")

	return cmd
}

// printResults writes one "YYYY-MM-DD | score | id | text" line per result.
func printResults(w io.Writer, ranked []candidate.Ranked) error {
	if len(ranked) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for i := range ranked {
		r := &ranked[i]
		if _, err := fmt.Fprintf(w, "%s | %.3f | %s | %s\n",
			r.CreatedAt.UTC().Format("2006-01-02"), r.FinalScore, r.DocumentID, r.Text); err != nil {
			return err
		}
	}
	return nil
}

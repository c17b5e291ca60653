package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/app"
	ingestuc "github.com/kailas-cloud/tweetdex/internal/usecase/ingest"
)

func newIngestCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <tweets.jsonl>",
		Short: "Embed and store tweets from a JSONL dump",
		Long: `Read one raw tweet per line, embed the text in batches and upsert
the rows into Redis. Malformed lines are skipped and counted.

Use "-" to read from standard input.

Examples:
  tweetdexctl ingest tweets.jsonl
  zcat tweets.jsonl.gz | tweetdexctl ingest -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App, _ *zap.Logger) error {
				if _, err := a.Tweets.EnsureIndex(ctx); err != nil {
					return fmt.Errorf("ensure index: %w", err)
				}
				res, err := a.Ingest.IngestJSONL(ctx, in)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				return printIngestResult(cmd.OutOrStdout(), res)
			})
		},
	}
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func printIngestResult(w io.Writer, res ingestuc.Result) error {
	_, err := fmt.Fprintf(w, "Ingest complete. Lines: %d, ingested: %d, skipped: %d\n",
		res.Lines, res.Ingested, res.Skipped)
	return err
}

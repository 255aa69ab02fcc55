package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"xscraper/pkg/enrich"
	"xscraper/pkg/logger"
)

var enrichOut string

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich <log>",
	Short: "Add author data to a crawl log's posts",
	Long: `Resolve the authors referenced by a crawl log and write an enriched
copy where each post record carries the author's user object under
author_data.

Author ids are looked up in batches of up to 100. The input log is never
modified; output goes to a new file. Posts whose author the API does not
know pass through unchanged.`,
	Example: `  # Write golang.enriched.jsonl
  xscraper enrich golang.jsonl

  # Explicit output path
  xscraper enrich golang.jsonl --out golang-authors.jsonl`,
	Args: cobra.ExactArgs(1),
	Run:  runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringVarP(&enrichOut, "out", "o", "", "output path (default: <log>.enriched.jsonl)")
}

func runEnrich(cmd *cobra.Command, args []string) {
	inPath := args[0]
	outPath := enrichOut
	if outPath == "" {
		outPath = strings.TrimSuffix(inPath, ".jsonl") + ".enriched.jsonl"
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		fail(err)
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := enrich.New(client, logger.GetLogger(), enrich.WithGrace(rateLimitGrace(cfg))).Run(ctx, inPath, outPath)
	if err != nil {
		fail(err)
	}

	fmt.Fprintf(os.Stderr, "Enriched %d of %d posts (%d of %d authors resolved) -> %s\n",
		stats.Enriched, stats.Posts, stats.Resolved, stats.Authors, outPath)
}

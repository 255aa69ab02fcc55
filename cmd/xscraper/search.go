package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xscraper/pkg/xapi"
)

var (
	searchMaxResults int
	searchNextToken  string
	searchSinceID    string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a one-shot recent search and print the results as JSON",
	Long: `Run a single recent-search request and print the full result --
posts, pagination and rate-limit state -- as indented JSON on stdout.

The query uses the X API search syntax, e.g. 'golang -is:retweet lang:en'.`,
	Example: `  # Search for recent posts
  xscraper search "golang"

  # Fetch the next page of an earlier search
  xscraper search "golang" --next-token b26v89c19zqg8o3f

  # Only posts newer than a known id
  xscraper search "golang" --since-id 1790000000000000000`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "page size (10-100, default from config)")
	searchCmd.Flags().StringVar(&searchNextToken, "next-token", "", "pagination cursor from a previous response")
	searchCmd.Flags().StringVar(&searchSinceID, "since-id", "", "only return posts newer than this id")
}

func runSearch(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if searchMaxResults != 0 {
		flags["max-results"] = searchMaxResults
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fail(err)
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		fail(err)
	}

	result, err := client.SearchRecent(context.Background(), xapi.SearchParams{
		Query:      args[0],
		MaxResults: cfg.Crawl.MaxResults,
		NextToken:  searchNextToken,
		SinceID:    searchSinceID,
	})
	if err != nil {
		fail(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fail(err)
	}

	fmt.Fprintf(os.Stderr, "%d posts, %d/%d requests remaining this window\n",
		result.Pagination.ResultCount, result.RateLimit.Remaining, result.RateLimit.Limit)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"xscraper/pkg/crawler"
	"xscraper/pkg/crawlog"
	"xscraper/pkg/logger"
)

var (
	crawlOut        string
	crawlDelaySecs  int
	crawlMaxResults int
	crawlContinue   bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl <query>",
	Short: "Continuously crawl recent search results into an NDJSON log",
	Long: `Crawl the recent-search endpoint for a query, appending every page to
an NDJSON log until interrupted with Ctrl-C.

Each iteration appends one crawl_step record (pagination and rate-limit
state) followed by one record per post. Pacing honors both the configured
fixed delay and the server's rate-limit window: when the window is
exhausted the crawler sleeps until it resets.

With --continue, the crawler reads the existing log and picks up from the
cursors of its last crawl_step record.`,
	Example: `  # Crawl into golang.jsonl in the output directory
  xscraper crawl "golang"

  # Custom log path and a slower cadence
  xscraper crawl "golang" --out ./logs/go.jsonl --delay 30

  # Resume an interrupted crawl
  xscraper crawl "golang" --out ./logs/go.jsonl --continue`,
	Args: cobra.ExactArgs(1),
	Run:  runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVarP(&crawlOut, "out", "o", "", "log file path (default: <output-dir>/<query>.jsonl)")
	crawlCmd.Flags().IntVar(&crawlDelaySecs, "delay", -1, "seconds between requests (default from config)")
	crawlCmd.Flags().IntVar(&crawlMaxResults, "max-results", 0, "page size (10-100, default from config)")
	crawlCmd.Flags().BoolVar(&crawlContinue, "continue", false, "resume from the log's last crawl step")
}

func runCrawl(cmd *cobra.Command, args []string) {
	query := strings.TrimSpace(args[0])

	flags := make(map[string]interface{})
	if crawlDelaySecs >= 0 {
		flags["delay"] = crawlDelaySecs
	}
	if crawlMaxResults != 0 {
		flags["max-results"] = crawlMaxResults
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fail(err)
	}
	log := logger.GetLogger()

	outPath := crawlOut
	if outPath == "" {
		outPath = filepath.Join(cfg.Output.Directory, logFileName(query))
	}

	engineCfg := crawler.Config{
		Query:      query,
		MaxResults: cfg.Crawl.MaxResults,
		Delay:      crawlDelay(cfg),
		Grace:      rateLimitGrace(cfg),
	}
	if crawlContinue {
		engineCfg, err = crawler.Resume(outPath, engineCfg)
		if err != nil {
			fail(err)
		}
		log.InfoWithFields("resuming crawl", map[string]interface{}{
			"since_id":   engineCfg.SinceID,
			"next_token": engineCfg.NextToken,
		})
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		fail(err)
	}

	w, err := crawlog.Append(outPath)
	if err != nil {
		fail(err)
	}
	defer w.Close()

	fmt.Fprintf(os.Stderr, "Crawling %q into %s (Ctrl-C to stop)\n", query, outPath)

	// Ctrl-C cancels the context; the engine treats that as its clean exit
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = crawler.New(client, log).Run(ctx, engineCfg, w)
	if err != nil && ctx.Err() == nil {
		fail(err)
	}

	fmt.Fprintln(os.Stderr, "Crawl stopped")
}

// logFileName derives a filesystem-safe log name from a search query.
func logFileName(query string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, query)
	if safe == "" {
		safe = "crawl"
	}
	return safe + ".jsonl"
}

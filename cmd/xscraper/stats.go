package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"xscraper/pkg/stats"
)

var statsOut string

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <log>",
	Short: "Render an HTML chart report from a crawl log",
	Long: `Render a crawl log into an HTML report with a posts-per-author pie
chart and a posts-per-hour bar chart. Open the result in a browser.`,
	Example: `  xscraper stats golang.jsonl --out golang.html`,
	Args:    cobra.ExactArgs(1),
	Run:     runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsOut, "out", "o", "", "output HTML path (default: <log>.html)")
}

func runStats(cmd *cobra.Command, args []string) {
	if _, err := loadConfig(nil); err != nil {
		fail(err)
	}

	outPath := statsOut
	if outPath == "" {
		outPath = strings.TrimSuffix(args[0], ".jsonl") + ".html"
	}

	f, err := os.Create(outPath)
	if err != nil {
		fail(err)
	}
	defer f.Close()

	summary, err := stats.WriteReport(args[0], f)
	if err != nil {
		fail(err)
	}

	fmt.Fprintf(os.Stderr, "Report on %d posts by %d authors -> %s\n",
		summary.Posts, summary.Authors, outPath)
}

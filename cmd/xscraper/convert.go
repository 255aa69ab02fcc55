package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xscraper/pkg/export"
)

var convertOut string

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <log>",
	Short: "Convert a crawl log to CSV",
	Long: `Convert the post records of a crawl log into a CSV table.

Non-post records are dropped. Nested fields are flattened into
underscore-joined column names, every post gains an x_link column with its
web URL, and the header is the sorted union of all column names so the
same log always yields the same table.`,
	Example: `  # Write CSV next to the log
  xscraper convert golang.jsonl --out golang.csv

  # Pipe to stdout
  xscraper convert golang.jsonl`,
	Args: cobra.ExactArgs(1),
	Run:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "output CSV path (default: stdout)")
}

func runConvert(cmd *cobra.Command, args []string) {
	if _, err := loadConfig(nil); err != nil {
		fail(err)
	}

	out := os.Stdout
	if convertOut != "" {
		f, err := os.Create(convertOut)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		out = f
	}

	stats, err := export.FromLog(args[0], out)
	if err != nil {
		fail(err)
	}

	fmt.Fprintf(os.Stderr, "Wrote %d rows, %d columns", stats.Rows, stats.Columns)
	if stats.Skipped > 0 {
		fmt.Fprintf(os.Stderr, " (%d malformed lines skipped)", stats.Skipped)
	}
	fmt.Fprintln(os.Stderr)
}

package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"xscraper/pkg/auth"
	"xscraper/pkg/config"
	"xscraper/pkg/logger"
	"xscraper/pkg/xapi"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xscraper",
	Short: "A recent-search crawler for the X API",
	Long: `xscraper crawls the X (Twitter) recent-search API and persists every
post it sees to an append-only NDJSON log.

Features:
  - Continuous crawling with rate-limit aware pacing
  - Crash-safe resume from a previous crawl log
  - Author enrichment via batched user lookups
  - CSV export with stable, sorted headers
  - Secure bearer-token storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .xscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`xscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig assembles configuration from all sources plus the command's
// own flag overrides, then initializes the global logger from it.
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if quiet {
		flags["log-level"] = "error"
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, nil
}

// newAPIClient builds the API client off the credential chain and config.
func newAPIClient(cfg *config.Config) (*xapi.Client, error) {
	tokens, err := auth.NewManager()
	if err != nil {
		return nil, err
	}

	opts := []xapi.Option{}
	if cfg.API.BaseURL != "" {
		opts = append(opts, xapi.WithBaseURL(cfg.API.BaseURL))
	}
	if cfg.RateLimit.RequestsPerMinute > 0 {
		opts = append(opts, xapi.WithRequestsPerMinute(cfg.RateLimit.RequestsPerMinute))
	}

	return xapi.NewClient(tokens, cfg.API.Timeout, logger.GetLogger(), opts...), nil
}

// fail prints the error to stderr and exits 1.
func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func crawlDelay(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Crawl.DelaySeconds) * time.Second
}

func rateLimitGrace(cfg *config.Config) time.Duration {
	return time.Duration(cfg.RateLimit.GraceSeconds) * time.Second
}

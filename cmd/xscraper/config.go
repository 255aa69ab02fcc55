package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xscraper/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xscraper configuration.

Configuration is loaded from, in order of priority:
  - Command line flags
  - Environment variables (XSCRAPER_*)
  - A .env file in the working directory
  - The configuration file
  - Default values`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Run:   runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. The API token is
not part of the configuration file; use 'xscraper auth status' for it.`,
	Run: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".xscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintln(os.Stderr, "Configuration file already exists:", configPath)
		os.Exit(1)
	}

	exampleConfig := `# xscraper configuration file
#
# Every option can also be set with an XSCRAPER_* environment variable,
# e.g. XSCRAPER_CRAWL_DELAY, XSCRAPER_MAX_RESULTS, XSCRAPER_OUTPUT_DIR.
# The API bearer token is NOT configured here; set XSCRAPER_API_TOKEN or
# run 'xscraper auth login'.

api:
  # Request timeout
  timeout: 30s

rate_limit:
  # Client-side cap on requests per minute (0 disables)
  requests_per_minute: 0

  # Extra seconds to wait past an exhausted window's reset time
  grace_seconds: 2

crawl:
  # Fixed pause between search requests, in seconds
  delay_seconds: 10

  # Page size requested from the search endpoint (10-100)
  max_results: 100

output:
  # Where crawl logs land when no --out path is given
  directory: "."

logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path; empty logs to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		fail(err)
	}

	fmt.Println("Configuration file created:", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'xscraper auth login' to store your API token")
	fmt.Println("2. Start crawling with 'xscraper crawl <query>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		fail(err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fail(err)
	}
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (XSCRAPER_*)")
	fmt.Println("3. .env file")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
}

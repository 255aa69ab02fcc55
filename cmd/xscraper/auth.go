package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xscraper/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the X API bearer token",
	Long: `Manage the stored X API bearer token.

The token is resolved in order from:
  - The ` + auth.EnvTokenVar + ` environment variable
  - The system keychain (when available)
  - An encrypted file with PBKDF2 key derivation

Never share your token or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the API bearer token securely",
	Long: `Store the X API bearer token in the system keychain or an encrypted
file.

To get a token, create a project in the X developer portal and copy the
app's Bearer Token from its Keys and Tokens page.`,
	Example: `  xscraper auth login`,
	Args:    cobra.NoArgs,
	Run:     runLogin,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a token is configured",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	Run:   runLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fail(err)
	}

	fmt.Print("Bearer token (hidden as you type): ")
	token, err := readSecret()
	if err != nil {
		fail(err)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		fail(fmt.Errorf("token is required"))
	}

	if err := manager.Store(token); err != nil {
		fail(err)
	}

	fmt.Printf("Token stored (%s)\n", auth.MaskToken(token))
	fmt.Println("\nTry it out:")
	fmt.Println("  xscraper search \"golang\"")
}

func runStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fail(err)
	}

	token, err := manager.Token()
	if err != nil {
		fmt.Println("No token configured.")
		fmt.Printf("Set %s or run 'xscraper auth login'.\n", auth.EnvTokenVar)
		os.Exit(1)
	}

	fmt.Printf("Token configured: %s\n", auth.MaskToken(token))
	if os.Getenv(auth.EnvTokenVar) != "" {
		fmt.Printf("Source: %s environment variable\n", auth.EnvTokenVar)
	} else {
		fmt.Println("Source: stored credentials")
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fail(err)
	}

	if err := manager.Delete(); err != nil {
		fail(err)
	}

	fmt.Println("Stored token removed.")
	if os.Getenv(auth.EnvTokenVar) != "" {
		fmt.Printf("Note: %s is still set in your environment.\n", auth.EnvTokenVar)
	}
}

// readSecret reads a line from stdin without echoing
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(secret), nil
		}
	}

	// Not a terminal (piped input); read normally
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var followersByID bool

// followersCmd represents the followers command
var followersCmd = &cobra.Command{
	Use:   "followers <username>",
	Short: "Look up a user's follower count",
	Example: `  # By handle
  xscraper followers jack

  # By numeric user id
  xscraper followers 12 --id`,
	Args: cobra.ExactArgs(1),
	Run:  runFollowers,
}

func init() {
	rootCmd.AddCommand(followersCmd)

	followersCmd.Flags().BoolVar(&followersByID, "id", false, "treat the argument as a numeric user id")
}

func runFollowers(cmd *cobra.Command, args []string) {
	identifier := strings.TrimPrefix(strings.TrimSpace(args[0]), "@")

	cfg, err := loadConfig(nil)
	if err != nil {
		fail(err)
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		fail(err)
	}

	user, _, err := client.GetUser(context.Background(), identifier, !followersByID)
	if err != nil {
		fail(err)
	}

	count, ok := user.FollowerCount()
	if !ok {
		fail(fmt.Errorf("user %q has no public follower count", identifier))
	}
	fmt.Printf("@%s has %d followers\n", user.Username(), count)
}

package cmd

import (
	"github.com/spf13/cobra"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List and inspect topics on a running server",
	Long: `The topics command queries a running nettable server for its topic table.

Available subcommands:
  list  List topics with an optional prefix filter
  get   Get detailed information about a single topic

Examples:
  # List all topics
  nettable-cli topics list

  # List topics under a prefix, as JSON
  nettable-cli topics list --prefix /drive/ --format json

  # Get detailed information about a topic
  nettable-cli topics get /drive/speed

Use "nettable-cli topics [command] --help" for more information about a specific command.`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}

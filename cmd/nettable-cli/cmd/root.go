package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "nettable-cli",
	Short: "Inspect and drive a running nettable server",
	Long: `nettable-cli is a command-line client for the nettable HTTP API.

Available commands:
  topics     List and inspect topics on a running server
  publish    Write a value to a topic
  stats      Show instance statistics

Use "nettable-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8735",
		"Base URL of the nettable server")
}

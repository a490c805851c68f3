package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/nettable/cmd/nettable-cli/internal/client"
)

var (
	listOutputFormat string
	listPrefixFilter string
)

// topicsListCmd represents the topics list command
var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics on the server",
	Long: `List every topic currently materialized on the server, with its type,
reference counts and latest value.

Examples:
  nettable-cli topics list                          # All topics in table format
  nettable-cli topics list --prefix /drive/         # Only topics under /drive/
  nettable-cli topics list --format json            # Machine-readable output

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format`,
	Run: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) {
	c := client.New(serverURL)

	infos, err := c.ListTopics(listPrefixFilter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list topics: %v\n", err)
		os.Exit(1)
	}

	if len(infos) == 0 {
		message := "No topics found"
		if listPrefixFilter != "" {
			message += fmt.Sprintf(" matching prefix '%s'", listPrefixFilter)
		}
		fmt.Println(message)
		return
	}

	switch listOutputFormat {
	case "json":
		if err := client.DisplayTopicsJSON(infos); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
	case "table":
		client.DisplayTopicsTable(infos)
	default:
		fmt.Fprintf(os.Stderr, "Error: Unsupported output format '%s'. Use 'table' or 'json'\n", listOutputFormat)
		os.Exit(1)
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listPrefixFilter, "prefix", "p", "", "Filter topics by name prefix")
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/nettable/cmd/nettable-cli/internal/client"
)

var getOutputFormat string

// topicsGetCmd represents the topics get command
var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Get detailed information about a single topic",
	Long: `Get detailed information about one topic: type, reference counts, latest
value and properties.

Examples:
  nettable-cli topics get /drive/speed                # Human-readable detail
  nettable-cli topics get /drive/speed --format json  # JSON output`,
	Args: cobra.ExactArgs(1),
	Run:  topicsGetHandler,
}

func topicsGetHandler(cmd *cobra.Command, args []string) {
	name := args[0]
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}

	c := client.New(serverURL)
	info, err := c.GetTopic(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to get topic '%s': %v\n", name, err)
		os.Exit(1)
	}

	switch getOutputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(info); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
	case "table":
		client.DisplayTopicDetail(info)
	default:
		fmt.Fprintf(os.Stderr, "Error: Unsupported output format '%s'. Use 'table' or 'json'\n", getOutputFormat)
		os.Exit(1)
	}
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)

	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}

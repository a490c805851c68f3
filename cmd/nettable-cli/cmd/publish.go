package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/nettable/cmd/nettable-cli/internal/client"
	"github.com/nfrund/nettable/internal/server"
)

var (
	publishType      string
	publishTimestamp int64
)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish <topic-name> <value>",
	Short: "Write a value to a topic",
	Long: `Write one value to a topic through a running server. The value argument is
parsed as JSON, so strings must be quoted.

Examples:
  nettable-cli publish /drive/speed 3.5 --type double
  nettable-cli publish /mode '"auto"' --type string
  nettable-cli publish /enabled true --type boolean
  nettable-cli publish /targets '[1,2,3]' --type 'int[]'`,
	Args: cobra.ExactArgs(2),
	Run:  publishHandler,
}

func publishHandler(cmd *cobra.Command, args []string) {
	topic, raw := args[0], args[1]

	if !json.Valid([]byte(raw)) {
		fmt.Fprintf(os.Stderr, "Error: Value %q is not valid JSON (strings must be quoted)\n", raw)
		os.Exit(1)
	}

	c := client.New(serverURL)
	err := c.Publish(server.PublishRequest{
		Topic:     topic,
		Type:      publishType,
		Value:     json.RawMessage(raw),
		Timestamp: publishTimestamp,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to publish: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Published %s = %s\n", topic, raw)
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVarP(&publishType, "type", "t", "", "Value type (boolean, int, float, double, string, raw, or an array form like 'double[]')")
	publishCmd.Flags().Int64Var(&publishTimestamp, "timestamp", 0, "Microsecond timestamp (0 uses the server clock)")
	_ = publishCmd.MarkFlagRequired("type")
}

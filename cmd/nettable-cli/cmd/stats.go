package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nfrund/nettable/cmd/nettable-cli/internal/client"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show instance statistics",
	Run: func(cmd *cobra.Command, args []string) {
		c := client.New(serverURL)
		stats, err := c.Stats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to fetch stats: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintf(w, "Name:\t%s\n", stats.Name)
		fmt.Fprintf(w, "Instance ID:\t%s\n", stats.Instance)
		fmt.Fprintf(w, "Topics:\t%d\n", stats.Topics)
		fmt.Fprintf(w, "Handles:\t%d\n", stats.Handles)
		fmt.Fprintf(w, "Listeners:\t%d\n", stats.Listeners)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

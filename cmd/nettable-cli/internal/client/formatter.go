package client

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/nfrund/nettable/internal/table"
)

// DisplayTopicsTable displays topics in a formatted table
func DisplayTopicsTable(infos []table.TopicInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tTYPE\tPUBS\tSUBS\tVALUE\tTIMESTAMP")
	fmt.Fprintln(w, "----\t----\t----\t----\t-----\t---------")

	for _, info := range infos {
		val := "-"
		if info.Value != nil {
			val = truncateString(fmt.Sprintf("%v", info.Value), 30)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%d\n",
			info.Name, info.Type, info.Publishers, info.Subscribers, val, info.Timestamp)
	}
}

// DisplayTopicsJSON displays topics in JSON format
func DisplayTopicsJSON(infos []table.TopicInfo) error {
	output := struct {
		Topics []table.TopicInfo `json:"topics"`
		Count  int               `json:"count"`
	}{
		Topics: infos,
		Count:  len(infos),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// DisplayTopicDetail displays one topic in a detailed key-value layout.
func DisplayTopicDetail(info table.TopicInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Name:\t%s\n", info.Name)
	fmt.Fprintf(w, "Type:\t%s\n", info.Type)
	if info.TypeString != "" && info.TypeString != info.Type {
		fmt.Fprintf(w, "Type string:\t%s\n", info.TypeString)
	}
	fmt.Fprintf(w, "Publishers:\t%d\n", info.Publishers)
	fmt.Fprintf(w, "Subscribers:\t%d\n", info.Subscribers)
	fmt.Fprintf(w, "Remote:\t%v\n", info.Remote)
	if info.Value != nil {
		fmt.Fprintf(w, "Value:\t%v\n", info.Value)
		fmt.Fprintf(w, "Timestamp:\t%d\n", info.Timestamp)
	}
	for k, v := range info.Properties {
		fmt.Fprintf(w, "Property %s:\t%v\n", k, v)
	}
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON encodes a report as indented JSON on the command's stdout so
// output can be piped into jq or another tool.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

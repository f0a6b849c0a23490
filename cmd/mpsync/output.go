package main

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout. Paths keep
// their literal & < > characters.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeTOML encodes v as TOML with nested tables indented.
func writeTOML(cmd *cobra.Command, v any) error {
	enc := toml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndentTables(true)
	return enc.Encode(v)
}

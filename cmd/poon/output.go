package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/viper"
)

// jsonOutput reports whether --json was given.
func jsonOutput() bool {
	return viper.GetBool("output.json")
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// emit prints v as JSON with --json and the styled rendering otherwise.
func emit(w io.Writer, v any, styled func() string) error {
	if jsonOutput() {
		return printJSON(w, v)
	}
	_, err := fmt.Fprintln(w, styled())
	return err
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported format tokens and their converters",
	Long: `Formats initializes the converter registry and prints every type token
it can resolve, grouped by converter. Converters whose native tooling is
missing on this host are reported with the reason they are unavailable.`,
	RunE: runFormats,
}

func runFormats(cmd *cobra.Command, args []string) error {
	reg := buildPipeline(engineConfig()).Registry

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"tokens":   reg.Tokens(),
			"degraded": reg.Degraded(),
		})
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-10s  %s\n", "Converter", "Category", "Tokens")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 50))
	for _, d := range reg.Descriptors() {
		fmt.Fprintf(os.Stdout, "%-10s  %-10s  %s\n", d.Type, d.Category, strings.Join(d.Tokens, ", "))
	}

	if failures := reg.Failures(); len(failures) > 0 {
		fmt.Fprintln(os.Stdout, "\nunavailable:")
		for _, failure := range failures {
			fmt.Fprintf(os.Stdout, "  %s\n", failure)
		}
	}
	if reg.Degraded() {
		fmt.Fprintln(os.Stdout, "\nwarning: running on the embedded minimal converter set")
	}
	return nil
}

func init() {
	formatsCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(formatsCmd)
}

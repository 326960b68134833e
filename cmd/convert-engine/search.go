// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/convert-engine/internal/archive"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search past conversions in the local index",
	Long: `Search matches the query against document names and content snippets
in the conversion index. Without a query it lists the most recent
conversions.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := engineConfig()

	store, err := archive.NewStore(cfg.Conversion.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	query := strings.Join(args, " ")

	var records []archive.Record
	if query == "" {
		records, err = store.Recent(ctx)
	} else {
		records, err = store.Search(ctx, query)
	}
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-25s  %-6s  %-12s  %-7s  %s\n",
		"Rank", "Name", "Type", "Converter", "Status", "Snippet")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, r := range records {
		name := r.Name
		if len(name) > 25 {
			name = name[:22] + "..."
		}
		snippet := r.Snippet
		if len(snippet) > 40 {
			snippet = snippet[:37] + "..."
		}
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-25s  %-6s  %-12s  %-7s  %s\n",
			i+1, name, r.Type, r.Converter, status, snippet)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(records))
	return nil
}

func init() {
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

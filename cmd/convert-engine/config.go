// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage engine configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file with the current effective settings",
	Long: `Init writes convert-engine.yaml in the working directory, populated
with the currently effective configuration so every tunable is visible.
Refuses to overwrite an existing file unless --force is given.`,
	RunE: runConfigInit,
}

const configFileName = "convert-engine.yaml"

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		if _, err := os.Stat(configFileName); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", configFileName)
		}
	}

	data, err := yaml.Marshal(engineConfig())
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	if err := os.WriteFile(configFileName, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configFileName, err)
	}

	fmt.Printf("Wrote %s\n", configFileName)
	return nil
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(engineConfig())
		if err != nil {
			return fmt.Errorf("rendering config: %w", err)
		}
		os.Stdout.Write(data)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

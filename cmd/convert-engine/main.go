// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the convert-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/convert-engine/internal/secrets"
	"github.com/pdiddy/convert-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the convert-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "convert-engine",
	Short: "Convert documents, web pages, and media into Markdown",
	Long: `convert-engine turns PDFs, web pages, images, data files, and media
into structured Markdown through a single conversion pipeline. Image-heavy
PDFs can be routed through a remote OCR service with automatic local
fallback.

Each operation is a subcommand: convert files directly, list supported
formats, search past conversions, or serve the HTTP API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional and loses to real environment variables.
		godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./convert-engine.yaml or ~/.config/convert-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("convert-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "convert-engine"))
		}
	}

	viper.SetEnvPrefix("CONVERT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles stage configuration from the config file and
// environment, with compiled-in defaults.
func engineConfig() types.EngineConfig {
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("http.user_agent", "convert-engine/"+version)
	viper.SetDefault("ocr.base_url", "https://api.mistral.ai")
	viper.SetDefault("ocr.model", "mistral-ocr-latest")
	viper.SetDefault("ocr.max_retries", 5)
	viper.SetDefault("conversion.output_dir", "converted")
	viper.SetDefault("conversion.data_dir", "data")
	viper.SetDefault("server.addr", ":8080")

	return types.EngineConfig{
		HTTP: types.HTTPConfig{
			Timeout:   viper.GetDuration("http.timeout"),
			UserAgent: viper.GetString("http.user_agent"),
		},
		OCR: types.OCRConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   2 * time.Minute,
				UserAgent: viper.GetString("http.user_agent"),
			},
			BaseURL:    viper.GetString("ocr.base_url"),
			Model:      viper.GetString("ocr.model"),
			Language:   viper.GetString("ocr.language"),
			MaxRetries: viper.GetInt("ocr.max_retries"),
		},
		Conversion: types.ConversionConfig{
			OutputDir: viper.GetString("conversion.output_dir"),
			DataDir:   viper.GetString("conversion.data_dir"),
			UseOCR:    viper.GetBool("conversion.use_ocr"),
			Isolate:   viper.GetBool("conversion.isolate"),
		},
		Server: types.ServerConfig{
			Addr:           viper.GetString("server.addr"),
			AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
			MaxUploadBytes: viper.GetInt64("server.max_upload_bytes"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/convert-engine/internal/archive"
	"github.com/pdiddy/convert-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion engine over HTTP",
	Long: `Serve exposes the pipeline as a JSON API: POST /api/convert submits a
document or URL, GET /api/jobs/{id} polls progress, GET /api/search
queries the conversion index, and GET /api/documents/{id}/preview
renders a converted document as HTML.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := engineConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	store, err := archive.NewStore(cfg.Conversion.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(buildPipeline(cfg), store, cfg.Server, os.Stderr)
	srv.OutputDir = cfg.Conversion.OutputDir
	return srv.Start()
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")

	rootCmd.AddCommand(serveCmd)
}

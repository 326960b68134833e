// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the conversion engine over HTTP: submit a
// document, poll job progress, search the archive, and preview
// converted Markdown as HTML.
package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/pdiddy/convert-engine/internal/archive"
	"github.com/pdiddy/convert-engine/internal/pipeline"
	"github.com/pdiddy/convert-engine/pkg/types"
)

const defaultMaxUploadBytes = 50 << 20

// Server wires the pipeline and archive behind the HTTP surface.
type Server struct {
	Pipeline *pipeline.Pipeline
	Archive  *archive.Store
	Config   types.ServerConfig
	Log      io.Writer

	// OutputDir receives converted Markdown files; empty disables
	// writing and previews answer 404.
	OutputDir string
}

func New(p *pipeline.Pipeline, store *archive.Store, cfg types.ServerConfig, log io.Writer) *Server {
	if log == nil {
		log = io.Discard
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Server{Pipeline: p, Archive: store, Config: cfg, Log: log}
}

// Router builds the route table with CORS applied.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"convert-engine"}`))
	}).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/convert", s.handleConvert).Methods("POST")
	api.HandleFunc("/jobs/{id}", s.handleJob).Methods("GET")
	api.HandleFunc("/jobs/{id}", s.handleCancel).Methods("DELETE")
	api.HandleFunc("/formats", s.handleFormats).Methods("GET")
	api.HandleFunc("/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/documents/{id}/preview", s.handlePreview).Methods("GET")

	origins := s.Config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(router)
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	addr := s.Config.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Fprintf(s.Log, "listening on %s\n", addr)
	return srv.ListenAndServe()
}

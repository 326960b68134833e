// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/yuin/goldmark"

	"github.com/pdiddy/convert-engine/internal/archive"
	"github.com/pdiddy/convert-engine/internal/pipeline"
	"github.com/pdiddy/convert-engine/pkg/types"
)

// convertRequest is the JSON body for URL conversions.
type convertRequest struct {
	URL      string `json:"url"`
	FileType string `json:"fileType,omitempty"`
	Name     string `json:"name,omitempty"`
	UseOCR   bool   `json:"useOcr,omitempty"`
	Language string `json:"language,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
}

// handleConvert accepts a multipart upload or a JSON URL request,
// submits the job, and answers immediately with the job id. Progress is
// available through the jobs endpoint while the conversion runs.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	src, opts, err := s.parseConvertRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := s.Pipeline.Submit(context.Background(), src, opts)
	go s.archiveWhenDone(job)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":  job.ID,
		"status": string(types.StatusStarting),
	})
}

func (s *Server) parseConvertRequest(r *http.Request) (pipeline.Source, types.Options, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(s.Config.MaxUploadBytes); err != nil {
			return pipeline.Source{}, types.Options{}, fmt.Errorf("parsing upload: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return pipeline.Source{}, types.Options{}, fmt.Errorf("upload needs a file field")
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, s.Config.MaxUploadBytes))
		if err != nil {
			return pipeline.Source{}, types.Options{}, fmt.Errorf("reading upload: %w", err)
		}

		opts := types.Options{
			FileType:         r.FormValue("fileType"),
			Name:             r.FormValue("name"),
			OriginalFileName: header.Filename,
			UseOCR:           r.FormValue("useOcr") == "true",
			Language:         r.FormValue("language"),
			OCRAPIKey:        r.FormValue("apiKey"),
		}
		return pipeline.Source{Data: data}, opts, nil
	}

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return pipeline.Source{}, types.Options{}, fmt.Errorf("parsing request body: %w", err)
	}
	if req.URL == "" {
		return pipeline.Source{}, types.Options{}, fmt.Errorf("request needs a url or a file upload")
	}
	opts := types.Options{
		FileType:  req.FileType,
		Name:      req.Name,
		UseOCR:    req.UseOCR,
		Language:  req.Language,
		OCRAPIKey: req.APIKey,
	}
	return pipeline.Source{URL: req.URL}, opts, nil
}

// archiveWhenDone persists the terminal result so polling keeps working
// after the job is evicted from the in-memory map.
func (s *Server) archiveWhenDone(job *pipeline.Job) {
	for range job.Events() {
	}
	<-job.Done()

	res := job.Result()
	if res == nil || s.Archive == nil {
		return
	}

	outputPath := ""
	if res.Success && s.OutputDir != "" {
		path, err := s.writeDocument(res)
		if err != nil {
			fmt.Fprintf(s.Log, "warning: writing output for %s: %v\n", job.ID, err)
		} else {
			outputPath = path
		}
	}

	if _, err := s.Archive.Save(context.Background(), job.ID, res, outputPath); err != nil {
		fmt.Fprintf(s.Log, "warning: archiving %s: %v\n", job.ID, err)
	}
}

func (s *Server) writeDocument(res *types.Result) (string, error) {
	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.OutputDir, res.Name+".md")
	if err := os.WriteFile(path, []byte(res.Content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// handleJob reports job state: live jobs answer from the in-memory map,
// finished ones from the archive.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if job, ok := s.Pipeline.Jobs.Get(id); ok {
		snap := job.Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"jobId":     snap.ID,
			"status":    string(snap.Status),
			"progress":  snap.Progress,
			"startTime": snap.StartTime,
			"error":     snap.Error,
		})
		return
	}

	if s.Archive != nil {
		if rec, err := s.Archive.Get(r.Context(), id); err == nil {
			status := types.StatusCompleted
			if !rec.Success {
				status = types.StatusFailed
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"jobId":    rec.ID,
				"status":   string(status),
				"progress": 100,
				"record":   rec,
			})
			return
		}
	}

	writeError(w, http.StatusNotFound, "unknown job id")
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.Pipeline.Jobs.Cancel(id) {
		writeError(w, http.StatusNotFound, "no active job with that id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobId":  id,
		"status": string(types.StatusCancelled),
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tokens":   s.Pipeline.Registry.Tokens(),
		"degraded": s.Pipeline.Registry.Degraded(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.Archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	var (
		records []archive.Record
		err     error
	)
	if query == "" {
		records, err = s.Archive.Recent(r.Context())
	} else {
		records, err = s.Archive.Search(r.Context(), query)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		fmt.Fprintf(s.Log, "search %q failed: %v\n", query, err)
		return
	}
	if records == nil {
		records = []archive.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "results": records})
}

// handlePreview renders an archived document's Markdown to HTML.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.Archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	id := mux.Vars(r)["id"]
	rec, err := s.Archive.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown document id")
		return
	}
	if rec.OutputPath == "" {
		writeError(w, http.StatusNotFound, "document has no stored output")
		return
	}

	source, err := os.ReadFile(rec.OutputPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "stored output is missing")
		fmt.Fprintf(s.Log, "preview %s: %v\n", id, err)
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(source, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, "rendering preview failed")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

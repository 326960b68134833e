// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// MetadataFunc extracts local, lightweight document metadata (title,
// author, page count). It runs independently of the remote call so the
// final document is enriched even when OCR degrades. Injected by the
// converter that owns the format-specific extraction library.
type MetadataFunc func(data []byte) (DocumentMeta, error)

// Manager orchestrates one remote OCR conversion: local metadata
// extraction, the upload/sign/process protocol, result normalization,
// and Markdown assembly. It owns a scoped temporary working directory
// per conversion, removed on every exit path.
type Manager struct {
	Client      *Client
	ExtractMeta MetadataFunc
	TempRoot    string
	Log         io.Writer
}

// NewManager builds a manager around a configured client.
func NewManager(client *Client, extract MetadataFunc, log io.Writer) *Manager {
	if log == nil {
		log = io.Discard
	}
	return &Manager{Client: client, ExtractMeta: extract, Log: log}
}

// Convert runs the full remote OCR pipeline for req. The returned error
// is a *types.ValidationError for a bad key (checked before any round
// trip) or a *types.RemoteServiceError for HTTP-level failures; callers
// decide whether to fall back to local extraction.
func (m *Manager) Convert(ctx context.Context, req *types.Request) (result *types.Result, err error) {
	report := func(pct int, status types.JobStatus) {
		types.Report(req.Progress, pct, string(status))
	}
	report(0, types.StatusStarting)

	if err := ValidateAPIKey(m.Client.APIKey); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp(m.TempRoot, "ocr-*")
	if err != nil {
		return nil, fmt.Errorf("creating working directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tempDir); rmErr != nil {
			fmt.Fprintf(m.Log, "warning: could not remove working directory %s: %v\n", tempDir, rmErr)
		}
	}()

	// Stage the upload bytes on disk so the working set is bounded and
	// a partial failure leaves nothing outside tempDir.
	staged := filepath.Join(tempDir, req.Name+".pdf")
	if err := os.WriteFile(staged, req.Content, 0o600); err != nil {
		return nil, fmt.Errorf("staging document: %w", err)
	}

	report(10, types.StatusExtractingMetadata)
	meta := m.extractMetadata(req)

	report(20, types.StatusProcessingOCR)
	source, err := os.Open(staged)
	if err != nil {
		return nil, fmt.Errorf("opening staged document: %w", err)
	}
	uploaded, err := m.Client.Upload(ctx, filepath.Base(staged), source)
	source.Close()
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(m.Log, "uploaded %s as %s\n", req.Name, uploaded.ID)

	report(45, types.StatusProcessingOCR)
	signed, err := m.Client.GetSignedURL(ctx, uploaded.ID)
	if err != nil {
		return nil, err
	}

	report(55, types.StatusProcessingOCR)
	resp, err := m.Client.Process(ctx, signed.URL)
	if err != nil {
		return nil, err
	}

	report(80, types.StatusProcessingResults)
	doc := &types.OCRDocument{
		Info: types.OCRDocumentInfo{
			Model:    resp.Model,
			Language: m.Client.Config.Language,
			Usage:    resp.UsageInfo,
		},
		Pages: Normalize(resp.Pages),
	}

	report(90, types.StatusGeneratingMarkdown)
	content := Assemble(doc, salvageRawText(resp), meta)

	report(100, types.StatusCompleted)
	return &types.Result{
		Success:  true,
		Content:  content,
		Type:     req.Type,
		Name:     req.Name,
		Category: types.CategoryDocument,
		Metadata: map[string]any{
			"converter": "remote-ocr",
			"model":     resp.Model,
			"pageCount": len(doc.Pages),
			"title":     meta.Title,
		},
	}, nil
}

// extractMetadata runs the injected local extractor, degrading to
// name-derived metadata when it is absent or fails.
func (m *Manager) extractMetadata(req *types.Request) DocumentMeta {
	meta := DocumentMeta{
		Title:     req.Name,
		Type:      req.Type,
		Converted: time.Now().UTC(),
	}
	if m.ExtractMeta == nil {
		return meta
	}
	extracted, err := m.ExtractMeta(req.Content)
	if err != nil {
		fmt.Fprintf(m.Log, "warning: local metadata extraction failed for %s: %v\n", req.Name, err)
		return meta
	}
	if extracted.Title != "" {
		meta.Title = extracted.Title
	}
	meta.Author = extracted.Author
	meta.PageCount = extracted.PageCount
	return meta
}

// salvageRawText pulls any text the service returned outside the
// normalized page fields, used when every page normalized to empty.
// Document-level text wins over per-page raw fields.
func salvageRawText(resp *ProcessResponse) string {
	if s := strings.TrimSpace(resp.Text); s != "" {
		return s
	}
	if s := strings.TrimSpace(resp.FullText); s != "" {
		return s
	}
	for _, page := range resp.Pages {
		if s := firstStringField(page, "raw_text", "full_text"); s != "" {
			return s
		}
	}
	return ""
}

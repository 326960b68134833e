// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package converters implements the concrete format converters the
// registry hands out: PDF, web pages, delimited/plain data, images, and
// media. Each converter satisfies the types.Converter contract and tags
// its output with its own name in metadata.
package converters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/pdiddy/convert-engine/internal/ocr"
	"github.com/pdiddy/convert-engine/pkg/types"
)

// PDFConverter extracts text locally with MuPDF and optionally routes
// image-heavy documents through the remote OCR manager. Remote failures
// at the HTTP level surface as errors; a key that fails the pre-call
// check degrades to local extraction instead of failing the request.
type PDFConverter struct {
	OCRConfig types.OCRConfig
	TempRoot  string
	Log       io.Writer
}

func (c *PDFConverter) Convert(ctx context.Context, req *types.Request) (*types.Result, error) {
	if len(req.Content) == 0 {
		return nil, &types.ValidationError{Field: "content", Reason: "empty PDF source"}
	}

	if req.Options.UseOCR {
		if err := ocr.ValidateAPIKey(req.APIKey); err != nil {
			fmt.Fprintf(c.log(), "warning: OCR requested but key check failed (%v), using local extraction\n", err)
		} else {
			res, err := c.convertRemote(ctx, req)
			if err == nil {
				return res, nil
			}
			var remote *types.RemoteServiceError
			if errors.As(err, &remote) {
				return nil, err
			}
			fmt.Fprintf(c.log(), "warning: remote OCR failed (%v), using local extraction\n", err)
		}
	}

	return c.convertLocal(req)
}

// convertRemote runs the multi-step remote OCR pipeline.
func (c *PDFConverter) convertRemote(ctx context.Context, req *types.Request) (*types.Result, error) {
	client := ocr.NewClient(c.OCRConfig, req.APIKey)
	manager := ocr.NewManager(client, extractPDFMeta, c.log())
	manager.TempRoot = c.TempRoot
	return manager.Convert(ctx, req)
}

// convertLocal extracts per-page text with MuPDF and assembles the same
// front-matter-plus-page-sections document the OCR path produces. No
// remote call is made.
func (c *PDFConverter) convertLocal(req *types.Request) (*types.Result, error) {
	types.Report(req.Progress, 10, string(types.StatusExtractingMetadata))

	doc, err := fitz.NewFromMemory(req.Content)
	if err != nil {
		return nil, &types.ConversionError{Converter: "pdf-local", Err: fmt.Errorf("opening PDF: %w", err)}
	}
	defer doc.Close()

	meta := ocr.DocumentMeta{
		Title:     req.Name,
		Type:      req.Type,
		PageCount: doc.NumPage(),
		Converted: time.Now().UTC(),
	}
	if info := doc.Metadata(); info != nil {
		if title := strings.TrimSpace(info["title"]); title != "" {
			meta.Title = title
		}
		meta.Author = strings.TrimSpace(info["author"])
	}

	total := doc.NumPage()
	if total == 0 {
		return nil, &types.ConversionError{Converter: "pdf-local", Err: fmt.Errorf("document has no pages")}
	}

	pages := make([]types.OCRPage, 0, total)
	for i := 0; i < total; i++ {
		text, textErr := doc.Text(i)
		if textErr != nil {
			fmt.Fprintf(c.log(), "warning: page %d of %s unreadable: %v\n", i+1, req.Name, textErr)
			text = ""
		}
		page := types.OCRPage{PageNumber: i + 1, Text: strings.TrimSpace(text)}
		if page.Text == "" {
			page.ImageOnly = true
		}
		pages = append(pages, page)

		types.Report(req.Progress, 10+80*(i+1)/total, "extracting_text")
	}

	content := ocr.Assemble(&types.OCRDocument{Pages: pages}, "", meta)
	types.Report(req.Progress, 100, string(types.StatusCompleted))

	return &types.Result{
		Success:  true,
		Content:  content,
		Type:     req.Type,
		Name:     req.Name,
		Category: types.CategoryDocument,
		Metadata: map[string]any{
			"converter": "pdf-local",
			"pageCount": len(pages),
			"title":     meta.Title,
		},
	}, nil
}

func (c *PDFConverter) log() io.Writer {
	if c.Log != nil {
		return c.Log
	}
	return io.Discard
}

// extractPDFMeta is the MetadataFunc the OCR manager runs locally,
// independent of the remote call.
func extractPDFMeta(data []byte) (ocr.DocumentMeta, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return ocr.DocumentMeta{}, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	meta := ocr.DocumentMeta{PageCount: doc.NumPage()}
	if info := doc.Metadata(); info != nil {
		meta.Title = strings.TrimSpace(info["title"])
		meta.Author = strings.TrimSpace(info["author"])
	}
	return meta, nil
}

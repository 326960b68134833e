// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/pdiddy/convert-engine/internal/ocr"
	"github.com/pdiddy/convert-engine/pkg/types"
)

// ImageConverter recognizes text in a single image with the local
// Tesseract engine.
type ImageConverter struct {
	Language string
}

func (c *ImageConverter) Convert(_ context.Context, req *types.Request) (*types.Result, error) {
	if len(req.Content) == 0 {
		return nil, &types.ValidationError{Field: "content", Reason: "empty image source"}
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(req.Content); err != nil {
		return nil, &types.ConversionError{Converter: "image-ocr", Err: fmt.Errorf("loading image: %w", err)}
	}
	if lang := c.language(req.Options); lang != "" {
		if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
			return nil, &types.ConversionError{Converter: "image-ocr", Err: fmt.Errorf("setting language %q: %w", lang, err)}
		}
	}

	types.Report(req.Progress, 50, string(types.StatusProcessingOCR))

	text, err := client.Text()
	if err != nil {
		return nil, &types.ConversionError{Converter: "image-ocr", Err: fmt.Errorf("recognizing text: %w", err)}
	}

	page := types.OCRPage{PageNumber: 1, Text: strings.TrimSpace(text)}
	if page.Text == "" {
		page.ImageOnly = true
	}
	content := ocr.Assemble(&types.OCRDocument{Pages: []types.OCRPage{page}}, "", ocr.DocumentMeta{
		Title:     req.Name,
		Type:      req.Type,
		PageCount: 1,
		Converted: time.Now().UTC(),
	})

	return &types.Result{
		Success:  true,
		Content:  content,
		Type:     req.Type,
		Name:     req.Name,
		Category: types.CategoryDocument,
		Metadata: map[string]any{
			"converter": "image-ocr",
			"imageOnly": page.ImageOnly,
		},
	}, nil
}

func (c *ImageConverter) language(opts types.Options) string {
	if opts.Language != "" {
		return opts.Language
	}
	return c.Language
}

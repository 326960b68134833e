// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converters

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/pdiddy/convert-engine/internal/registry"
	"github.com/pdiddy/convert-engine/pkg/types"
)

// Providers returns the full provider list for the registry, in
// priority order. Providers whose native tooling is missing fail their
// Build and the registry falls through to the next candidate.
func Providers(cfg types.EngineConfig, log io.Writer) []registry.Provider {
	return []registry.Provider{
		{Name: "document", Build: documentProvider(cfg, log)},
		{Name: "web", Build: webProvider(cfg)},
		{Name: "data", Build: dataProvider()},
		{Name: "image", Build: imageProvider(cfg)},
		{Name: "media", Build: mediaProvider()},
	}
}

func documentProvider(cfg types.EngineConfig, log io.Writer) func() ([]types.Descriptor, error) {
	return func() ([]types.Descriptor, error) {
		pdf := &PDFConverter{OCRConfig: cfg.OCR, Log: log}
		return []types.Descriptor{
			{
				Type:      "pdf",
				Tokens:    []string{"pdf"},
				Category:  types.CategoryDocument,
				Converter: pdf,
			},
		}, nil
	}
}

func webProvider(cfg types.EngineConfig) func() ([]types.Descriptor, error) {
	return func() ([]types.Descriptor, error) {
		web := NewWebConverter(cfg.HTTP)
		return []types.Descriptor{
			{
				Type:      "web",
				Tokens:    []string{"html", "htm", "url"},
				Category:  types.CategoryWeb,
				Converter: web,
			},
		}, nil
	}
}

func dataProvider() func() ([]types.Descriptor, error) {
	return func() ([]types.Descriptor, error) {
		data := DataConverter{}
		return []types.Descriptor{
			{
				Type:      "data",
				Tokens:    []string{"csv", "tsv", "json", "txt", "md", "markdown"},
				Category:  types.CategoryData,
				Converter: data,
			},
		}, nil
	}
}

func imageProvider(cfg types.EngineConfig) func() ([]types.Descriptor, error) {
	return func() ([]types.Descriptor, error) {
		// gosseract links libtesseract, but recognition still needs the
		// trained data the tesseract install ships.
		if _, err := exec.LookPath("tesseract"); err != nil {
			return nil, fmt.Errorf("tesseract not installed: %w", err)
		}
		img := &ImageConverter{Language: cfg.OCR.Language}
		return []types.Descriptor{
			{
				Type:      "image",
				Tokens:    []string{"png", "jpg", "jpeg", "tiff", "bmp"},
				Category:  types.CategoryDocument,
				Converter: img,
			},
		}, nil
	}
}

func mediaProvider() func() ([]types.Descriptor, error) {
	return func() ([]types.Descriptor, error) {
		if _, err := exec.LookPath("ffprobe"); err != nil {
			return nil, fmt.Errorf("ffprobe not installed: %w", err)
		}
		audio := &MediaConverter{Category: types.CategoryAudio}
		video := &MediaConverter{Category: types.CategoryVideo}
		return []types.Descriptor{
			{
				Type:      "audio",
				Tokens:    []string{"mp3", "wav", "flac", "ogg", "m4a"},
				Category:  types.CategoryAudio,
				Converter: audio,
			},
			{
				Type:      "video",
				Tokens:    []string{"mp4", "mkv", "mov", "webm", "avi"},
				Category:  types.CategoryVideo,
				Converter: video,
			},
		}, nil
	}
}

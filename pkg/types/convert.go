// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model for the conversion pipeline:
// the converter contract, the canonical conversion result, job tracking,
// OCR page structures, and stage configuration.
package types

import "context"

// Category classifies a converter by the kind of source it handles.
type Category string

const (
	CategoryAudio    Category = "audio"
	CategoryVideo    Category = "video"
	CategoryDocument Category = "document"
	CategoryData     Category = "data"
	CategoryWeb      Category = "web"
)

// Converter transforms one source document into Markdown. Implementations
// handle a single family of formats (PDF, HTML, CSV, ...) and are selected
// through the registry by type token.
type Converter interface {
	// Convert processes the request and returns a result. A nil result with
	// a non-nil error is permitted; the facade standardizes either shape
	// into the canonical Result contract.
	Convert(ctx context.Context, req *Request) (*Result, error)
}

// Descriptor describes a registered converter: its canonical type token,
// the aliases it is registered under, and its category.
type Descriptor struct {
	// Type is the canonical type token (e.g. "pdf", "html", "csv").
	Type string

	// Tokens lists every token the converter is registered under,
	// including Type itself (e.g. "html", "htm", "url").
	Tokens []string

	// Category classifies the converter's source kind.
	Category Category

	// Converter is the conversion implementation.
	Converter Converter
}

// Request carries one conversion into a converter. Immutable once submitted.
type Request struct {
	// Content holds the raw source bytes. Empty when URL is set.
	Content []byte

	// URL is the source location for web conversions.
	URL string

	// Name is the display name derived for the source (usually the base
	// filename without extension).
	Name string

	// Type is the normalized type token the converter was resolved under.
	Type string

	// APIKey is an opaque credential passed through to converters that
	// call remote services.
	APIKey string

	// Options carries the caller-supplied conversion options.
	Options Options

	// Progress receives the converter's self-reported progress. May be nil.
	Progress ProgressSink
}

// Options are the recognized conversion options. Unknown caller keys are
// carried opaquely in Extra and passed through to the selected converter.
type Options struct {
	FileType         string         `json:"fileType,omitempty" yaml:"file_type,omitempty"`
	Name             string         `json:"name,omitempty" yaml:"name,omitempty"`
	OriginalFileName string         `json:"originalFileName,omitempty" yaml:"original_file_name,omitempty"`
	APIKey           string         `json:"apiKey,omitempty" yaml:"api_key,omitempty"`
	OCRAPIKey        string         `json:"ocrApiKey,omitempty" yaml:"ocr_api_key,omitempty"`
	UseOCR           bool           `json:"useOcr,omitempty" yaml:"use_ocr,omitempty"`
	OutputDir        string         `json:"outputDir,omitempty" yaml:"output_dir,omitempty"`
	Language         string         `json:"language,omitempty" yaml:"language,omitempty"`
	Extra            map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// OCRKey returns the OCR credential, preferring the dedicated key over
// the generic one.
func (o Options) OCRKey() string {
	if o.OCRAPIKey != "" {
		return o.OCRAPIKey
	}
	return o.APIKey
}

// ImageRef references an image encountered during conversion.
type ImageRef struct {
	Alt    string `json:"alt,omitempty" yaml:"alt,omitempty"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Result is the canonical conversion result every caller depends on,
// regardless of which converter produced it. After standardization:
// Content is never empty, Metadata["converter"] is always set, and Error
// is non-empty exactly when Success is false.
type Result struct {
	Success      bool           `json:"success" yaml:"success"`
	Content      string         `json:"content" yaml:"content"`
	Type         string         `json:"type" yaml:"type"`
	Name         string         `json:"name" yaml:"name"`
	Category     Category       `json:"category" yaml:"category"`
	Metadata     map[string]any `json:"metadata" yaml:"metadata"`
	Images       []ImageRef     `json:"images" yaml:"images"`
	Error        string         `json:"error,omitempty" yaml:"error,omitempty"`
	Async        bool           `json:"async,omitempty" yaml:"async,omitempty"`
	ConversionID string         `json:"conversionId,omitempty" yaml:"conversion_id,omitempty"`
}

// ConverterName returns Metadata["converter"], or "" when unset.
func (r *Result) ConverterName() string {
	if r == nil || r.Metadata == nil {
		return ""
	}
	if name, ok := r.Metadata["converter"].(string); ok {
		return name
	}
	return ""
}

// Progress is one progress event for a job.
type Progress struct {
	JobID   string `json:"jobId" yaml:"job_id"`
	Percent int    `json:"percent" yaml:"percent"`
	Stage   string `json:"stage,omitempty" yaml:"stage,omitempty"`
}

// ProgressSink receives self-reported progress from a sub-operation.
// Implementations rescale and forward; Update must be safe to call from
// the converter's goroutine.
type ProgressSink interface {
	Update(percent int, stage string)
}

// Report forwards progress to sink when it is non-nil.
func Report(sink ProgressSink, percent int, stage string) {
	if sink != nil {
		sink.Update(percent, stage)
	}
}

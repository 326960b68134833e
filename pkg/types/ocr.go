// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OCRPage is the canonical per-page result of remote OCR after
// normalization. Exactly one OCRPage exists per page returned by the
// remote service, even when no text was extractable.
type OCRPage struct {
	// PageNumber is 1-based and ascending within a document.
	PageNumber int `json:"pageNumber" yaml:"page_number"`

	// Confidence is the service-reported recognition confidence in
	// [0,1], when the service provided one.
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// Text is the normalized Markdown text for the page. Empty when
	// ImageOnly is true.
	Text string `json:"text" yaml:"text"`

	// ImageOnly marks a page from which no text could be recovered.
	ImageOnly bool `json:"isImageOnly" yaml:"is_image_only"`
}

// OCRDocumentInfo describes the remote OCR run that produced a document.
type OCRDocumentInfo struct {
	Model    string         `json:"model,omitempty" yaml:"model,omitempty"`
	Language string         `json:"language,omitempty" yaml:"language,omitempty"`
	Usage    map[string]any `json:"usage,omitempty" yaml:"usage,omitempty"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// OCRDocument is a fully normalized remote OCR response.
type OCRDocument struct {
	Info  OCRDocumentInfo `json:"documentInfo" yaml:"document_info"`
	Pages []OCRPage       `json:"pages" yaml:"pages"`
}

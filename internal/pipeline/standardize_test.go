// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/convert-engine/pkg/types"
)

func TestStandardize_NeverNullContent(t *testing.T) {
	tests := []struct {
		name        string
		raw         *types.Result
		convErr     error
		wantSuccess bool
	}{
		{
			name:    "nil result with error",
			convErr: errors.New("exploded"),
		},
		{
			name: "nil result without error",
		},
		{
			name: "success with empty content gets placeholder",
			raw:  &types.Result{Success: true},

			wantSuccess: true,
		},
		{
			name: "failure with empty content gets diagnostic",
			raw:  &types.Result{Success: false, Error: "bad input"},
		},
		{
			name: "success flag must be explicit",
			raw:  &types.Result{Content: "some text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Standardize(tt.raw, tt.convErr, "doc", "pdf", "test-conv", types.CategoryDocument)

			if strings.TrimSpace(res.Content) == "" {
				t.Error("standardized content must never be empty")
			}
			if res.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", res.Success, tt.wantSuccess)
			}
			if res.Success && res.Error != "" {
				t.Error("error must be cleared on success")
			}
			if !res.Success && res.Error == "" {
				t.Error("error must be populated on failure")
			}
			if res.Images == nil {
				t.Error("images must default to an empty slice")
			}
			if res.ConverterName() == "" {
				t.Error("metadata.converter must always be populated")
			}
		})
	}
}

func TestStandardize_PreservesConverterOutput(t *testing.T) {
	raw := &types.Result{
		Success:  true,
		Content:  "# Done",
		Type:     "csv",
		Name:     "sheet",
		Category: types.CategoryData,
		Metadata: map[string]any{"converter": "csv-table", "rows": 12},
		Images:   []types.ImageRef{{Alt: "chart", Source: "chart.png"}},
		Error:    "stale error from a confused converter",
	}

	res := Standardize(raw, nil, "other", "pdf", "fallback", types.CategoryDocument)

	if res.Content != "# Done" || res.Type != "csv" || res.Name != "sheet" {
		t.Error("populated fields must pass through untouched")
	}
	if res.ConverterName() != "csv-table" {
		t.Error("converter metadata must not be overridden")
	}
	if res.Error != "" {
		t.Error("stale error must be deleted when success is true")
	}
	if len(res.Images) != 1 {
		t.Error("images must pass through")
	}
}

func TestStandardize_AsyncAcknowledgement(t *testing.T) {
	raw := &types.Result{
		Success:      true,
		Async:        true,
		ConversionID: "conv-42",
		Metadata:     map[string]any{"converter": "remote-ocr"},
	}

	res := Standardize(raw, nil, "bigdoc", "pdf", "remote-ocr", types.CategoryDocument)

	if !res.Async || res.ConversionID != "conv-42" {
		t.Error("async shape must be preserved verbatim")
	}
	if strings.TrimSpace(res.Content) == "" {
		t.Error("async acknowledgement still carries a placeholder body")
	}
	if !strings.Contains(res.Content, "conv-42") {
		t.Error("placeholder should reference the conversion id")
	}
}

func TestStandardize_RemoteErrorCarriesHint(t *testing.T) {
	convErr := &types.RemoteServiceError{
		StatusCode: 500,
		Message:    "upstream exploded",
		Hint:       "retry in a few minutes",
	}

	res := Standardize(nil, convErr, "doc", "pdf", "remote-ocr", types.CategoryDocument)

	if res.Success {
		t.Fatal("remote failure must not be success")
	}
	if !strings.Contains(res.Content, "retry in a few minutes") {
		t.Errorf("diagnostic should carry the remediation hint:\n%s", res.Content)
	}
	if !strings.Contains(res.Content, "upstream exploded") {
		t.Error("diagnostic should carry the error message")
	}
}

func TestDeriveNameAndType(t *testing.T) {
	tests := []struct {
		name     string
		src      Source
		opts     types.Options
		wantName string
		wantType string
	}{
		{
			name:     "explicit options win",
			src:      Source{Path: "/tmp/report.pdf"},
			opts:     types.Options{Name: "custom", FileType: "DOCX"},
			wantName: "custom",
			wantType: "docx",
		},
		{
			name:     "path suffix",
			src:      Source{Path: "/data/in/Q3 Report.PDF"},
			wantName: "Q3 Report",
			wantType: "pdf",
		},
		{
			name:     "original file name",
			src:      Source{Data: []byte("x")},
			opts:     types.Options{OriginalFileName: "upload.csv"},
			wantName: "upload",
			wantType: "csv",
		},
		{
			name:     "url with extension",
			src:      Source{URL: "https://example.com/docs/intro.html"},
			wantName: "example-com-docs-intro-html",
			wantType: "html",
		},
		{
			name:     "extension-less url is a web page",
			src:      Source{URL: "https://example.com/blog/post"},
			wantName: "example-com-blog-post",
			wantType: "url",
		},
		{
			name:     "nothing derivable",
			src:      Source{Data: []byte("x")},
			wantName: "document",
			wantType: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveName(tt.src, tt.opts); got != tt.wantName {
				t.Errorf("DeriveName = %q, want %q", got, tt.wantName)
			}
			if got := DeriveType(tt.src, tt.opts); got != tt.wantType {
				t.Errorf("DeriveType = %q, want %q", got, tt.wantType)
			}
		})
	}
}

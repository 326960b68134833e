// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"strings"
	"testing"
)

func TestNormalize_FieldPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		page      map[string]any
		want      string
		imageOnly bool
	}{
		{
			name: "markdown wins over text",
			page: map[string]any{"markdown": "# Rendered", "text": "plain"},
			want: "# Rendered",
		},
		{
			name: "text field",
			page: map[string]any{"text": "plain body"},
			want: "plain body",
		},
		{
			name: "content field",
			page: map[string]any{"content": "from content"},
			want: "from content",
		},
		{
			name: "ocr_text field",
			page: map[string]any{"ocr_text": "from ocr_text"},
			want: "from ocr_text",
		},
		{
			name: "empty markdown falls through to text",
			page: map[string]any{"markdown": "   ", "text": "fallback"},
			want: "fallback",
		},
		{
			name: "lines array",
			page: map[string]any{"lines": []any{"first", "second"}},
			want: "first\nsecond",
		},
		{
			name: "lines of objects",
			page: map[string]any{"lines": []any{
				map[string]any{"text": "alpha"},
				map[string]any{"content": "beta"},
			}},
			want: "alpha\nbeta",
		},
		{
			name:      "nothing usable is image only",
			page:      map[string]any{"width": 612.0, "height": 792.0},
			imageOnly: true,
		},
		{
			name:      "wrong types everywhere still total",
			page:      map[string]any{"markdown": 42.0, "text": []any{"x"}, "blocks": "no", "lines": 7.0},
			imageOnly: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := Normalize([]map[string]any{tt.page})
			if len(pages) != 1 {
				t.Fatalf("got %d pages, want 1", len(pages))
			}
			p := pages[0]
			if p.ImageOnly != tt.imageOnly {
				t.Errorf("ImageOnly = %v, want %v", p.ImageOnly, tt.imageOnly)
			}
			if tt.imageOnly {
				if p.Text != "" {
					t.Errorf("image-only page should have empty text, got %q", p.Text)
				}
				return
			}
			if p.Text != tt.want {
				t.Errorf("Text = %q, want %q", p.Text, tt.want)
			}
		})
	}
}

func TestNormalize_OnePageTextPerInputPage(t *testing.T) {
	input := []map[string]any{
		{"markdown": "one"},
		{},
		{"text": "three"},
		nil,
	}
	pages := Normalize(input)
	if len(pages) != len(input) {
		t.Fatalf("got %d pages, want %d", len(pages), len(input))
	}
	for i, p := range pages {
		if p.PageNumber != i+1 {
			t.Errorf("page %d: PageNumber = %d, want %d", i, p.PageNumber, i+1)
		}
	}
	if !pages[1].ImageOnly || !pages[3].ImageOnly {
		t.Error("empty and nil pages must be marked image-only")
	}
}

func TestNormalize_PageNumberFields(t *testing.T) {
	pages := Normalize([]map[string]any{
		{"index": 0.0, "text": "a"},
		{"page_number": 7.0, "text": "b"},
		{"page": 3.0, "text": "c"},
	})
	if pages[0].PageNumber != 1 {
		t.Errorf("zero-based index: got %d, want 1", pages[0].PageNumber)
	}
	if pages[1].PageNumber != 7 {
		t.Errorf("page_number: got %d, want 7", pages[1].PageNumber)
	}
	if pages[2].PageNumber != 3 {
		t.Errorf("page: got %d, want 3", pages[2].PageNumber)
	}
}

func TestNormalize_Confidence(t *testing.T) {
	pages := Normalize([]map[string]any{
		{"text": "a", "confidence": 0.93},
		{"text": "b"},
	})
	if pages[0].Confidence == nil || *pages[0].Confidence != 0.93 {
		t.Errorf("confidence not carried: %v", pages[0].Confidence)
	}
	if pages[1].Confidence != nil {
		t.Error("absent confidence must stay nil")
	}
}

func TestRenderBlocks_BlockTypes(t *testing.T) {
	page := map[string]any{"blocks": []any{
		map[string]any{"type": "heading", "level": 2.0, "text": "Section"},
		map[string]any{"type": "paragraph", "text": "Body text."},
		map[string]any{"type": "list", "items": []any{"alpha", "beta"}},
		map[string]any{"type": "ordered_list", "items": []any{"uno", "dos"}},
		map[string]any{"type": "table", "rows": []any{
			[]any{"Name", "Count"},
			[]any{"widgets", 4.0},
		}},
		map[string]any{"type": "image", "alt": "diagram", "source": "fig1.png"},
		map[string]any{"type": "code", "language": "go", "text": "fmt.Println(1)"},
		map[string]any{"type": "quote", "text": "line one\nline two"},
	}}

	pages := Normalize([]map[string]any{page})
	text := pages[0].Text

	for _, want := range []string{
		"## Section",
		"Body text.",
		"- alpha",
		"- beta",
		"1. uno",
		"2. dos",
		"| Name | Count |",
		"| --- | --- |",
		"| widgets | 4 |",
		"![diagram](fig1.png)",
		"```go\nfmt.Println(1)\n```",
		"> line one",
		"> line two",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered blocks missing %q in:\n%s", want, text)
		}
	}
}

func TestRenderBlocks_ElementsAliasAndUnknownTypes(t *testing.T) {
	pages := Normalize([]map[string]any{{
		"elements": []any{
			map[string]any{"type": "mystery", "text": "still surfaces"},
			map[string]any{"type": "heading", "level": 9.0, "text": "Clamped"},
			"bare string entry",
			42.0,
		},
	}})
	text := pages[0].Text
	if !strings.Contains(text, "still surfaces") {
		t.Error("unknown block type should degrade to its text")
	}
	if !strings.Contains(text, "# Clamped") || strings.Contains(text, "#########") {
		t.Error("out-of-range heading level should clamp to a single #")
	}
	if !strings.Contains(text, "bare string entry") {
		t.Error("bare string blocks should be kept")
	}
}

func TestNormalize_TableWithObjectRows(t *testing.T) {
	pages := Normalize([]map[string]any{{
		"blocks": []any{map[string]any{
			"type": "table",
			"rows": []any{
				map[string]any{"cells": []any{"h1", "h2", "h3"}},
				map[string]any{"cells": []any{"a|b", "c", "d"}},
			},
		}},
	}})
	text := pages[0].Text
	if !strings.Contains(text, "| --- | --- | --- |") {
		t.Errorf("separator should match column count, got:\n%s", text)
	}
	if !strings.Contains(text, `a\|b`) {
		t.Errorf("pipes inside cells should be escaped, got:\n%s", text)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("Normalize(nil) = %v, want empty", got)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/convert-engine/pkg/types"
)

func TestAssemble_FrontMatterAndPageOrder(t *testing.T) {
	conf := 0.9
	doc := &types.OCRDocument{
		Pages: []types.OCRPage{
			{PageNumber: 3, Text: "third"},
			{PageNumber: 1, Text: "first", Confidence: &conf},
			{PageNumber: 2, Text: "second"},
		},
	}
	meta := DocumentMeta{
		Title:     "Quarterly Report",
		Type:      "pdf",
		Converted: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}

	out := Assemble(doc, "", meta)

	if !strings.HasPrefix(out, "---\n") {
		t.Error("output should start with front matter delimiter")
	}
	for _, want := range []string{
		`title: "Quarterly Report"`,
		`converted: "2026-08-20T12:00:00Z"`,
		`type: "pdf"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("front matter missing %q", want)
		}
	}

	p1 := strings.Index(out, "## Page 1")
	p2 := strings.Index(out, "## Page 2")
	p3 := strings.Index(out, "## Page 3")
	if p1 < 0 || p2 < 0 || p3 < 0 {
		t.Fatalf("missing page headings in:\n%s", out)
	}
	if !(p1 < p2 && p2 < p3) {
		t.Error("page sections must be in ascending page-number order")
	}
	if !strings.Contains(out, "*Confidence: 90%*") {
		t.Error("confidence line missing")
	}
}

func TestAssemble_PageCountRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 5, 12} {
		doc := &types.OCRDocument{}
		for i := 1; i <= n; i++ {
			doc.Pages = append(doc.Pages, types.OCRPage{PageNumber: i, Text: fmt.Sprintf("page %d", i)})
		}
		out := Assemble(doc, "", DocumentMeta{Title: "t", Type: "pdf"})
		if got := strings.Count(out, "## Page "); got != n {
			t.Errorf("n=%d: got %d page headings", n, got)
		}
	}
}

func TestAssemble_AllPagesEmpty(t *testing.T) {
	doc := &types.OCRDocument{
		Pages: []types.OCRPage{
			{PageNumber: 1, ImageOnly: true},
			{PageNumber: 2, ImageOnly: true},
		},
	}

	out := Assemble(doc, "salvaged raw text", DocumentMeta{Title: "Scan", Type: "pdf"})

	if strings.TrimSpace(out) == "" {
		t.Fatal("assembler must never emit an empty document")
	}
	if !strings.Contains(out, "No text could be recognized") {
		t.Error("diagnostic note missing")
	}
	if !strings.Contains(out, "salvaged raw text") {
		t.Error("salvageable raw response text missing")
	}
	if got := strings.Count(out, "## Page "); got != 2 {
		t.Errorf("page headings = %d, want 2", got)
	}
}

func TestAssemble_ZeroConvertedTimestampDefaults(t *testing.T) {
	doc := &types.OCRDocument{Pages: []types.OCRPage{{PageNumber: 1, Text: "x"}}}
	out := Assemble(doc, "", DocumentMeta{Title: "t", Type: "pdf"})
	if strings.Contains(out, "0001-01-01") {
		t.Error("zero timestamp should default to now")
	}
}

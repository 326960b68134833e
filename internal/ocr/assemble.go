// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// DocumentMeta carries the locally-extracted metadata that enriches the
// assembled document even when remote OCR degrades.
type DocumentMeta struct {
	Title     string
	Author    string
	Type      string
	PageCount int
	Converted time.Time
}

// Assemble combines front matter with one "## Page N" section per
// normalized page, in ascending page-number order. When every page is
// empty it still emits a valid document: a diagnostic note plus any
// salvageable raw response text (rawText). The output is never empty.
func Assemble(doc *types.OCRDocument, rawText string, meta DocumentMeta) string {
	converted := meta.Converted
	if converted.IsZero() {
		converted = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", meta.Title)
	fmt.Fprintf(&b, "converted: %q\n", converted.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "type: %q\n", meta.Type)
	if meta.Author != "" {
		fmt.Fprintf(&b, "author: %q\n", meta.Author)
	}
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", meta.Title)

	pages := append([]types.OCRPage(nil), doc.Pages...)
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})

	anyText := false
	for _, page := range pages {
		fmt.Fprintf(&b, "## Page %d\n\n", page.PageNumber)
		if page.Confidence != nil {
			fmt.Fprintf(&b, "*Confidence: %.0f%%*\n\n", *page.Confidence*100)
		}
		if strings.TrimSpace(page.Text) == "" {
			b.WriteString("*This page contains only images; no text was recognized.*\n\n")
			continue
		}
		anyText = true
		b.WriteString(strings.TrimRight(page.Text, "\n"))
		b.WriteString("\n\n")
	}

	if !anyText {
		b.WriteString("> No text could be recognized on any page of this document.\n")
		if salvage := strings.TrimSpace(rawText); salvage != "" {
			b.WriteString("\nThe service returned the following top-level text:\n\n")
			b.WriteString(salvage)
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

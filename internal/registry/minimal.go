// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// MinimalConverterName tags output produced by the embedded degraded-mode
// converter set so callers can detect that normal discovery failed.
const MinimalConverterName = "minimal-embedded"

// minimalDescriptors returns the embedded degraded-mode converter set.
// It covers the highest-priority types only: PDF gets a best-effort
// literal-string scraper, plain text passes through. Neither depends on
// native libraries or remote services.
func minimalDescriptors() []types.Descriptor {
	return []types.Descriptor{
		{
			Type:      "pdf",
			Tokens:    []string{"pdf"},
			Category:  types.CategoryDocument,
			Converter: &minimalPDF{},
		},
		{
			Type:      "txt",
			Tokens:    []string{"txt", "text", "md", "markdown"},
			Category:  types.CategoryData,
			Converter: &minimalText{},
		},
	}
}

// minimalPDF scrapes literal strings out of uncompressed PDF content
// streams. It recovers far less than a real extractor but never fails,
// which is the point of the degraded mode.
type minimalPDF struct{}

func (m *minimalPDF) Convert(_ context.Context, req *types.Request) (*types.Result, error) {
	types.Report(req.Progress, 10, "scraping")

	text := scrapeLiteralStrings(req.Content)
	pages := countPDFPages(req.Content)
	if pages < 1 {
		pages = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", req.Name)
	b.WriteString("> Converted in degraded mode: the full converter set was unavailable.\n\n")
	b.WriteString("## Page 1\n\n")
	if strings.TrimSpace(text) == "" {
		b.WriteString("*No text could be recovered from this document.*\n")
	} else {
		b.WriteString(text)
		b.WriteString("\n")
	}

	types.Report(req.Progress, 100, "scraped")

	return &types.Result{
		Success:  true,
		Content:  b.String(),
		Type:     "pdf",
		Name:     req.Name,
		Category: types.CategoryDocument,
		Metadata: map[string]any{
			"converter": MinimalConverterName,
			"pageCount": pages,
		},
	}, nil
}

// minimalText passes plain text through with a heading.
type minimalText struct{}

func (m *minimalText) Convert(_ context.Context, req *types.Request) (*types.Result, error) {
	content := strings.TrimSpace(string(req.Content))
	return &types.Result{
		Success:  true,
		Content:  fmt.Sprintf("# %s\n\n%s\n", req.Name, content),
		Type:     "txt",
		Name:     req.Name,
		Category: types.CategoryData,
		Metadata: map[string]any{
			"converter":   MinimalConverterName,
			"convertedAt": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// scrapeLiteralStrings pulls the contents of PDF literal strings, i.e.
// parenthesized runs inside Tj/TJ operators in uncompressed streams.
// Escapes for parentheses and backslashes are honored; everything else
// non-printable is dropped.
func scrapeLiteralStrings(data []byte) string {
	var b strings.Builder
	depth := 0
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]
		if depth > 0 {
			if escaped {
				switch c {
				case '(', ')', '\\':
					b.WriteByte(c)
				case 'n', 'r':
					b.WriteByte('\n')
				case 't':
					b.WriteByte(' ')
				}
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					b.WriteByte(' ')
				}
			default:
				if c >= 0x20 && c < 0x7f {
					b.WriteByte(c)
				}
			}
			continue
		}
		if c == '(' {
			depth = 1
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// countPDFPages counts page object markers in the raw bytes.
func countPDFPages(data []byte) int {
	n := strings.Count(string(data), "/Type /Page")
	n += strings.Count(string(data), "/Type/Page")
	// Every document also carries a /Type /Pages tree node that the
	// substring match above counts once.
	if n > 1 {
		n--
	}
	return n
}

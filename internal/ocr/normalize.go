// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"fmt"
	"strings"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// Normalize turns the service's loosely-typed page list into canonical
// OCRPages. It is total: malformed input never raises, and exactly one
// OCRPage is emitted per input page so page-count invariants hold for
// the assembler. Per-page field precedence:
//
//  1. a pre-rendered "markdown" field,
//  2. raw "text"/"content"/"ocr_text" fields,
//  3. a structured "blocks"/"elements" list rendered per block type,
//  4. a "lines" array joined in order,
//  5. nothing usable: empty text, marked image-only.
func Normalize(pages []map[string]any) []types.OCRPage {
	out := make([]types.OCRPage, 0, len(pages))
	for i, raw := range pages {
		out = append(out, normalizePage(i, raw))
	}
	return out
}

func normalizePage(index int, raw map[string]any) types.OCRPage {
	page := types.OCRPage{PageNumber: pageNumber(index, raw)}

	if conf, ok := numberField(raw, "confidence"); ok {
		page.Confidence = &conf
	}

	if text := firstStringField(raw, "markdown"); text != "" {
		page.Text = text
		return page
	}
	if text := firstStringField(raw, "text", "content", "ocr_text"); text != "" {
		page.Text = text
		return page
	}
	if blocks := listField(raw, "blocks", "elements"); len(blocks) > 0 {
		if text := renderBlocks(blocks); text != "" {
			page.Text = text
			return page
		}
	}
	if lines := listField(raw, "lines"); len(lines) > 0 {
		if text := joinLines(lines); text != "" {
			page.Text = text
			return page
		}
	}

	page.ImageOnly = true
	return page
}

// pageNumber reads the page's own number from index/page_number/page
// fields, falling back to the 1-based position in the response.
func pageNumber(index int, raw map[string]any) int {
	for _, key := range []string{"index", "page_number", "page"} {
		if n, ok := numberField(raw, key); ok {
			// Some services index pages from zero.
			if key == "index" {
				return int(n) + 1
			}
			if n >= 1 {
				return int(n)
			}
		}
	}
	return index + 1
}

// renderBlocks renders a structured block list to Markdown. Unknown
// block types degrade to their text content.
func renderBlocks(blocks []any) string {
	var parts []string
	for _, entry := range blocks {
		block, ok := entry.(map[string]any)
		if !ok {
			if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
			continue
		}
		if rendered := renderBlock(block); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func renderBlock(block map[string]any) string {
	text := firstStringField(block, "text", "content", "markdown")
	kind := strings.ToLower(firstStringField(block, "type", "kind"))

	switch kind {
	case "heading", "header", "title", "section_header":
		level := 1
		if n, ok := numberField(block, "level"); ok && n >= 1 && n <= 6 {
			level = int(n)
		}
		if text == "" {
			return ""
		}
		return strings.Repeat("#", level) + " " + text

	case "list", "list_item", "bullet", "unordered_list", "ordered_list":
		return renderList(block, text, kind)

	case "table":
		return renderTable(block)

	case "image", "figure", "picture":
		alt := firstStringField(block, "alt", "alt_text", "caption")
		if alt == "" {
			alt = "image"
		}
		src := firstStringField(block, "source", "src", "url", "image_url")
		return fmt.Sprintf("![%s](%s)", alt, src)

	case "code", "code_block":
		lang := firstStringField(block, "language", "lang")
		return fmt.Sprintf("```%s\n%s\n```", lang, text)

	case "quote", "blockquote", "block_quote":
		if text == "" {
			return ""
		}
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = "> " + line
		}
		return strings.Join(lines, "\n")

	default:
		return text
	}
}

// renderList handles both whole-list blocks carrying an items array and
// single list-item blocks.
func renderList(block map[string]any, text, kind string) string {
	ordered := kind == "ordered_list"
	if v, ok := block["ordered"].(bool); ok {
		ordered = v
	}

	items := listField(block, "items")
	if len(items) == 0 {
		if text == "" {
			return ""
		}
		return "- " + text
	}

	var lines []string
	n := 1
	for _, entry := range items {
		var item string
		switch v := entry.(type) {
		case string:
			item = v
		case map[string]any:
			item = firstStringField(v, "text", "content")
		}
		if strings.TrimSpace(item) == "" {
			continue
		}
		if ordered {
			lines = append(lines, fmt.Sprintf("%d. %s", n, item))
			n++
		} else {
			lines = append(lines, "- "+item)
		}
	}
	return strings.Join(lines, "\n")
}

// renderTable renders rows/cells to pipe-delimited Markdown with a
// synthesized header separator sized to the column count.
func renderTable(block map[string]any) string {
	rows := listField(block, "rows", "cells", "data")
	if len(rows) == 0 {
		return firstStringField(block, "text", "content")
	}

	var rendered []string
	columns := 0
	for _, entry := range rows {
		cells := tableRowCells(entry)
		if len(cells) == 0 {
			continue
		}
		if len(cells) > columns {
			columns = len(cells)
		}
		rendered = append(rendered, "| "+strings.Join(cells, " | ")+" |")
	}
	if len(rendered) == 0 || columns == 0 {
		return ""
	}

	separator := "|" + strings.Repeat(" --- |", columns)
	out := []string{rendered[0], separator}
	out = append(out, rendered[1:]...)
	return strings.Join(out, "\n")
}

func tableRowCells(entry any) []string {
	var cells []string
	switch row := entry.(type) {
	case []any:
		for _, cell := range row {
			cells = append(cells, cellText(cell))
		}
	case map[string]any:
		for _, cell := range listField(row, "cells", "columns") {
			cells = append(cells, cellText(cell))
		}
	}
	return cells
}

func cellText(cell any) string {
	switch v := cell.(type) {
	case string:
		return strings.ReplaceAll(v, "|", "\\|")
	case map[string]any:
		return strings.ReplaceAll(firstStringField(v, "text", "content"), "|", "\\|")
	case float64:
		return trimFloat(v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// joinLines concatenates a lines array in order.
func joinLines(lines []any) string {
	var parts []string
	for _, entry := range lines {
		switch v := entry.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				parts = append(parts, v)
			}
		case map[string]any:
			if text := firstStringField(v, "text", "content"); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// firstStringField returns the first named field holding a non-empty
// string.
func firstStringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// numberField reads a numeric field, tolerating the float64 that JSON
// decoding produces as well as int values from in-process callers.
func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// listField returns the first named field holding a list.
func listField(m map[string]any, keys ...string) []any {
	for _, key := range keys {
		if l, ok := m[key].([]any); ok {
			return l
		}
	}
	return nil
}

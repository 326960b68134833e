// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converters

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// DataConverter handles structured and plain text inputs: CSV becomes a
// Markdown table, JSON is pretty-printed into a fenced block, text and
// Markdown pass through under a title.
type DataConverter struct{}

func (DataConverter) Convert(_ context.Context, req *types.Request) (*types.Result, error) {
	var content string
	var err error

	switch req.Type {
	case "csv", "tsv":
		content, err = csvToTable(req.Content, req.Type)
	case "json":
		content, err = jsonToBlock(req.Content)
	default:
		content = string(req.Content)
	}
	if err != nil {
		return nil, &types.ConversionError{Converter: "data", Err: err}
	}

	types.Report(req.Progress, 80, "formatting")

	var b strings.Builder
	if req.Type != "md" && req.Type != "markdown" {
		fmt.Fprintf(&b, "# %s\n\n", req.Name)
	}
	b.WriteString(strings.TrimRight(content, "\n"))
	b.WriteString("\n")

	return &types.Result{
		Success:  true,
		Content:  b.String(),
		Type:     req.Type,
		Name:     req.Name,
		Category: types.CategoryData,
		Metadata: map[string]any{"converter": "data"},
	}, nil
}

// csvToTable renders delimited rows as a pipe table. Ragged rows are
// padded to the header width so the table stays well formed.
func csvToTable(data []byte, kind string) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	if kind == "tsv" {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1

	var b strings.Builder
	width := 0
	row := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing row %d: %w", row+1, err)
		}
		if row == 0 {
			width = len(record)
		}
		writeTableRow(&b, record, width)
		if row == 0 {
			b.WriteString("|")
			for i := 0; i < width; i++ {
				b.WriteString(" --- |")
			}
			b.WriteString("\n")
		}
		row++
	}
	if row == 0 {
		return "*Empty file.*", nil
	}
	return b.String(), nil
}

func writeTableRow(b *strings.Builder, record []string, width int) {
	b.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(record) {
			cell = strings.ReplaceAll(strings.TrimSpace(record[i]), "|", "\\|")
		}
		fmt.Fprintf(b, " %s |", cell)
	}
	b.WriteString("\n")
}

// jsonToBlock pretty-prints JSON into a fenced code block. Invalid JSON
// is an error rather than a silent passthrough.
func jsonToBlock(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return "", fmt.Errorf("parsing JSON: %w", err)
	}
	return "```json\n" + buf.String() + "\n```", nil
}

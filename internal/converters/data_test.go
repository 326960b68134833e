// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converters

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/convert-engine/pkg/types"
)

func dataRequest(typ string, content string) *types.Request {
	return &types.Request{
		Content: []byte(content),
		Name:    "sample",
		Type:    typ,
	}
}

func TestDataConverter_CSV(t *testing.T) {
	csvBody := "name,age\nalice,30\nbob,41\n"

	res, err := DataConverter{}.Convert(context.Background(), dataRequest("csv", csvBody))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatal("expected success")
	}
	for _, want := range []string{"| name | age |", "| --- | --- |", "| alice | 30 |", "| bob | 41 |"} {
		if !strings.Contains(res.Content, want) {
			t.Errorf("table missing %q:\n%s", want, res.Content)
		}
	}
	if res.Category != types.CategoryData {
		t.Errorf("category = %q", res.Category)
	}
}

func TestDataConverter_CSVRaggedRows(t *testing.T) {
	csvBody := "a,b,c\n1,2\n1,2,3,4\n"

	res, err := DataConverter{}.Convert(context.Background(), dataRequest("csv", csvBody))
	if err != nil {
		t.Fatal(err)
	}
	// Every rendered row is padded or truncated to the header width.
	for _, line := range strings.Split(res.Content, "\n") {
		if !strings.HasPrefix(line, "|") {
			continue
		}
		if got := strings.Count(line, "|"); got != 4 {
			t.Errorf("row %q has %d separators, want 4", line, got)
		}
	}
}

func TestDataConverter_CSVEscapesPipes(t *testing.T) {
	res, err := DataConverter{}.Convert(context.Background(), dataRequest("csv", "col\na|b\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Content, `a\|b`) {
		t.Errorf("pipe not escaped:\n%s", res.Content)
	}
}

func TestDataConverter_TSV(t *testing.T) {
	res, err := DataConverter{}.Convert(context.Background(), dataRequest("tsv", "x\ty\n1\t2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Content, "| x | y |") {
		t.Errorf("tab-delimited input not parsed:\n%s", res.Content)
	}
}

func TestDataConverter_JSON(t *testing.T) {
	res, err := DataConverter{}.Convert(context.Background(), dataRequest("json", `{"b":1,"a":[1,2]}`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Content, "```json") {
		t.Error("JSON should be fenced")
	}
	if !strings.Contains(res.Content, "  \"a\": [") {
		t.Errorf("JSON should be indented:\n%s", res.Content)
	}
}

func TestDataConverter_InvalidJSON(t *testing.T) {
	_, err := DataConverter{}.Convert(context.Background(), dataRequest("json", "{broken"))
	if err == nil {
		t.Fatal("invalid JSON must error")
	}
	var convErr *types.ConversionError
	if !errors.As(err, &convErr) {
		t.Errorf("error type = %T", err)
	}
}

func TestDataConverter_TextPassthrough(t *testing.T) {
	res, err := DataConverter{}.Convert(context.Background(), dataRequest("txt", "plain body"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Content, "# sample") {
		t.Error("text gets a title")
	}
	if !strings.Contains(res.Content, "plain body") {
		t.Error("body must pass through")
	}
}

func TestDataConverter_MarkdownKeepsOwnTitle(t *testing.T) {
	res, err := DataConverter{}.Convert(context.Background(), dataRequest("md", "# Existing\n\nbody"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.Content, "# sample") {
		t.Error("markdown input must not get a second title")
	}
}

func TestDataConverter_EmptyCSV(t *testing.T) {
	res, err := DataConverter{}.Convert(context.Background(), dataRequest("csv", ""))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(res.Content) == "" {
		t.Error("empty input still yields a document")
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/convert-engine/internal/httputil"
	"github.com/pdiddy/convert-engine/pkg/types"
)

// WebConverter turns HTML into Markdown. The source is either inline
// content or a URL fetched with the configured client.
type WebConverter struct {
	HTTP      *http.Client
	UserAgent string
	md        *md.Converter
}

func NewWebConverter(cfg types.HTTPConfig) *WebConverter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &WebConverter{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: cfg.UserAgent,
		md:        md.NewConverter("", true, nil),
	}
}

func (c *WebConverter) Convert(ctx context.Context, req *types.Request) (*types.Result, error) {
	html := req.Content
	sourceURL := req.URL

	if len(html) == 0 {
		if sourceURL == "" {
			return nil, &types.ValidationError{Field: "url", Reason: "web conversion needs content or a URL"}
		}
		fetched, err := c.fetch(ctx, sourceURL)
		if err != nil {
			return nil, err
		}
		html = fetched
	}

	types.Report(req.Progress, 40, "parsing")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return nil, &types.ConversionError{Converter: "web", Err: fmt.Errorf("parsing HTML: %w", err)}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = req.Name
	}
	doc.Find("script, style, noscript, iframe").Remove()

	body := doc.Find("body")
	fragment := string(html)
	if body.Length() > 0 {
		if inner, htmlErr := body.Html(); htmlErr == nil {
			fragment = inner
		}
	}

	types.Report(req.Progress, 70, "rendering")

	markdown, err := c.md.ConvertString(fragment)
	if err != nil {
		return nil, &types.ConversionError{Converter: "web", Err: fmt.Errorf("rendering Markdown: %w", err)}
	}

	var images []types.ImageRef
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			return
		}
		images = append(images, types.ImageRef{Alt: sel.AttrOr("alt", ""), Source: src})
	})

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if sourceURL != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", sourceURL)
	}
	b.WriteString(strings.TrimSpace(markdown))
	b.WriteString("\n")

	return &types.Result{
		Success:  true,
		Content:  b.String(),
		Type:     req.Type,
		Name:     req.Name,
		Category: types.CategoryWeb,
		Images:   images,
		Metadata: map[string]any{
			"converter": "web",
			"title":     title,
			"sourceUrl": sourceURL,
		},
	}, nil
}

// fetch downloads a page, reusing the retry helper for 429 responses.
func (c *WebConverter) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 3)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &types.RemoteServiceError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("fetching %s returned %s", url, resp.Status),
			Hint:       httputil.ClassifyStatus(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return body, nil
}

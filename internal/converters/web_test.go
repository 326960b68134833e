// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/convert-engine/pkg/types"
)

const samplePage = `<!doctype html>
<html>
<head><title>Release Notes</title><style>.x{color:red}</style></head>
<body>
<script>alert("nope")</script>
<h1>Changes</h1>
<p>Fixed the <b>big</b> bug.</p>
<img src="/diagram.png" alt="architecture">
</body>
</html>`

func TestWebConverter_InlineContent(t *testing.T) {
	c := NewWebConverter(types.HTTPConfig{})

	res, err := c.Convert(context.Background(), &types.Request{
		Content: []byte(samplePage),
		Name:    "notes",
		Type:    "html",
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Contains(t, res.Content, "# Release Notes")
	assert.Contains(t, res.Content, "**big**")
	assert.NotContains(t, res.Content, "alert(")
	assert.NotContains(t, res.Content, "color:red")

	require.Len(t, res.Images, 1)
	assert.Equal(t, "architecture", res.Images[0].Alt)
	assert.Equal(t, "/diagram.png", res.Images[0].Source)
	assert.Equal(t, types.CategoryWeb, res.Category)
}

func TestWebConverter_FetchesURL(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewWebConverter(types.HTTPConfig{UserAgent: "convert-engine/0.1"})
	res, err := c.Convert(context.Background(), &types.Request{
		URL:  srv.URL,
		Name: "remote",
		Type: "url",
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, "convert-engine/0.1", gotUA)
	assert.Contains(t, res.Content, "Source: "+srv.URL)
	assert.Contains(t, res.Content, "Fixed the")
}

func TestWebConverter_FetchFailureCarriesHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewWebConverter(types.HTTPConfig{})
	_, err := c.Convert(context.Background(), &types.Request{URL: srv.URL, Name: "x", Type: "url"})
	require.Error(t, err)

	var remote *types.RemoteServiceError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusServiceUnavailable, remote.StatusCode)
	assert.NotEmpty(t, remote.Hint)
}

func TestWebConverter_NoSourceAtAll(t *testing.T) {
	c := NewWebConverter(types.HTTPConfig{})
	_, err := c.Convert(context.Background(), &types.Request{Name: "x", Type: "html"})

	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "url", vErr.Field)
}

func TestWebConverter_UntitledPageUsesName(t *testing.T) {
	c := NewWebConverter(types.HTTPConfig{})
	res, err := c.Convert(context.Background(), &types.Request{
		Content: []byte("<p>bare fragment</p>"),
		Name:    "fragment",
		Type:    "html",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Content, "# fragment"))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/convert-engine/internal/registry"
	"github.com/pdiddy/convert-engine/pkg/types"
)

// Source locates the document to convert: a filesystem path, a URL, or
// an in-memory byte buffer.
type Source struct {
	Path string
	URL  string
	Data []byte
}

// DeriveName produces a display name from the explicit options, the
// locator's filename, or the URL host and path.
func DeriveName(src Source, opts types.Options) string {
	if opts.Name != "" {
		return opts.Name
	}
	if opts.OriginalFileName != "" {
		return trimExt(filepath.Base(opts.OriginalFileName))
	}
	if src.Path != "" {
		return trimExt(filepath.Base(src.Path))
	}
	if src.URL != "" {
		if name := nameFromURL(src.URL); name != "" {
			return name
		}
	}
	return "document"
}

// DeriveType produces a normalized type token from the explicit option,
// the locator's path suffix, or the URL. Returns "" when nothing can be
// derived.
func DeriveType(src Source, opts types.Options) string {
	if opts.FileType != "" {
		return registry.NormalizeToken(opts.FileType)
	}
	if opts.OriginalFileName != "" {
		if ext := filepath.Ext(opts.OriginalFileName); ext != "" {
			return registry.NormalizeToken(ext)
		}
	}
	if src.Path != "" {
		if ext := filepath.Ext(src.Path); ext != "" {
			return registry.NormalizeToken(ext)
		}
	}
	if src.URL != "" {
		u, err := url.Parse(src.URL)
		if err == nil {
			if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
				return registry.NormalizeToken(ext)
			}
		}
		// Extension-less URLs are web pages.
		return "url"
	}
	return ""
}

// nameFromURL slugs host plus path into a usable display name.
func nameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	name := u.Host
	if p := strings.Trim(u.Path, "/"); p != "" {
		name += "-" + p
	}
	name = strings.NewReplacer("/", "-", ".", "-", ":", "-").Replace(name)
	return trimExt(name)
}

func trimExt(name string) string {
	if ext := filepath.Ext(name); ext != "" && len(ext) <= 5 {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

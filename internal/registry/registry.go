// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry resolves file-type tokens to converter capabilities.
// The registry is built from an explicit, injected list of providers
// owned by the application's composition root. When every provider fails
// to initialize, an embedded minimal converter set installs so that
// resolution of the highest-priority types still succeeds in degraded
// mode.
package registry

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// Provider constructs a set of converter registrations. A provider may
// fail (a native library is missing, a data file cannot be opened);
// failures are recorded and the remaining providers are still consulted.
type Provider struct {
	// Name identifies the provider in logs and resolution errors.
	Name string

	// Build returns the provider's converter descriptors.
	Build func() ([]types.Descriptor, error)
}

// Registry maps type tokens to converters. Initialization is lazy and
// single-flight: concurrent callers share one in-flight initialization.
// Once initialized the token map is read-only and accessed without
// locking.
type Registry struct {
	providers []Provider
	log       io.Writer

	once     sync.Once
	byToken  map[string]*types.Descriptor
	failures []string
	degraded bool
}

// New creates a registry over the given providers. Nothing is built
// until the first Resolve, Tokens, or Descriptors call.
func New(log io.Writer, providers ...Provider) *Registry {
	if log == nil {
		log = os.Stderr
	}
	return &Registry{providers: providers, log: log}
}

// Resolve returns the converter descriptor registered for token. The
// token is matched case-insensitively, with any leading dot stripped.
// An unknown token yields *types.UnsupportedTypeError; Resolve never
// panics for any input.
func (r *Registry) Resolve(token string) (*types.Descriptor, error) {
	r.init()

	norm := NormalizeToken(token)
	if norm == "" {
		return nil, &types.UnsupportedTypeError{Token: token}
	}
	if d, ok := r.byToken[norm]; ok {
		return d, nil
	}
	return nil, &types.UnsupportedTypeError{Token: norm}
}

// Degraded reports whether the embedded minimal converter set is
// installed because every configured provider failed.
func (r *Registry) Degraded() bool {
	r.init()
	return r.degraded
}

// Failures returns the provider initialization failures, if any.
func (r *Registry) Failures() []string {
	r.init()
	return r.failures
}

// Tokens returns every registered type token, sorted.
func (r *Registry) Tokens() []string {
	r.init()
	tokens := make([]string, 0, len(r.byToken))
	for tok := range r.byToken {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

// Descriptors returns one entry per registered converter, sorted by
// canonical type.
func (r *Registry) Descriptors() []*types.Descriptor {
	r.init()
	seen := make(map[*types.Descriptor]bool)
	var out []*types.Descriptor
	for _, d := range r.byToken {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// init builds the token map exactly once.
func (r *Registry) init() {
	r.once.Do(func() {
		r.byToken = make(map[string]*types.Descriptor)

		for _, p := range r.providers {
			descriptors, err := p.Build()
			if err != nil {
				r.failures = append(r.failures, fmt.Sprintf("%s: %v", p.Name, err))
				fmt.Fprintf(r.log, "warning: converter provider %s failed: %v\n", p.Name, err)
				continue
			}
			r.install(descriptors)
		}

		if len(r.byToken) == 0 {
			fmt.Fprintf(r.log, "warning: all converter providers failed, installing embedded minimal set\n")
			r.install(minimalDescriptors())
			r.degraded = true
		}
	})
}

// install registers descriptors under each of their tokens. The first
// registration for a token wins; later providers do not override it.
func (r *Registry) install(descriptors []types.Descriptor) {
	for i := range descriptors {
		d := &descriptors[i]
		tokens := d.Tokens
		if len(tokens) == 0 {
			tokens = []string{d.Type}
		}
		for _, tok := range tokens {
			norm := NormalizeToken(tok)
			if norm == "" {
				continue
			}
			if _, exists := r.byToken[norm]; !exists {
				r.byToken[norm] = d
			}
		}
	}
}

// NormalizeToken lowercases a type token and strips a leading dot, so
// ".PDF", "pdf", and "PDF" all resolve identically.
func NormalizeToken(token string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(token)), ".")
}

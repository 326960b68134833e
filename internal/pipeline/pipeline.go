// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline is the unified conversion facade: the single entry
// point that derives a name and type token for a source, resolves a
// converter through the registry with a bounded retry schedule, invokes
// it, and standardizes whatever came back into the canonical result
// contract. Failures are values; nothing a converter does crosses this
// boundary as a panic or an unhandled error.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/pdiddy/convert-engine/internal/registry"
	"github.com/pdiddy/convert-engine/pkg/types"
)

// resolveDelays is the bounded retry schedule for registry resolution,
// tolerating a registry still completing its lazy initialization.
var resolveDelays = []time.Duration{0, 500 * time.Millisecond, time.Second}

// Pipeline is the conversion facade. It owns the in-memory job map and
// holds the registry by reference; both are constructed at the
// application's composition root.
type Pipeline struct {
	Registry *registry.Registry
	Jobs     *Jobs
	Log      io.Writer
}

// New builds a facade over an explicitly constructed registry.
func New(reg *registry.Registry, log io.Writer) *Pipeline {
	if log == nil {
		log = io.Discard
	}
	return &Pipeline{
		Registry: reg,
		Jobs:     NewJobs(),
		Log:      log,
	}
}

// Convert runs one conversion synchronously and returns the canonical
// result. It never returns an error; failures are carried in the result.
func (p *Pipeline) Convert(ctx context.Context, src Source, opts types.Options) *types.Result {
	job := p.Submit(ctx, src, opts)
	for range job.Events() {
		// Drain: the synchronous caller has no progress consumer.
	}
	<-job.Done()
	res := job.Result()
	if res == nil {
		// Cancelled from elsewhere before completion.
		return Standardize(nil, fmt.Errorf("conversion %s was cancelled", job.ID),
			DeriveName(src, opts), DeriveType(src, opts), "", "")
	}
	return res
}

// Submit registers a job and starts the conversion in the background.
// Callers consume job.Events() for progress and job.Done() plus
// job.Result() for the terminal result, which is delivered exactly once
// after all progress events.
func (p *Pipeline) Submit(ctx context.Context, src Source, opts types.Options) *Job {
	job := p.Jobs.create()
	go p.run(ctx, job, src, opts)
	return job
}

// run executes one conversion against its job.
func (p *Pipeline) run(ctx context.Context, job *Job, src Source, opts types.Options) {
	defer p.Jobs.remove(job.ID)

	name := DeriveName(src, opts)
	token := DeriveType(src, opts)

	job.tracker.Update(5, string(types.StatusStarting))

	if token == "" {
		p.fail(job, Standardize(nil, &types.UnsupportedTypeError{Token: "(none)"}, name, token, "", ""))
		return
	}

	descriptor, err := p.resolve(ctx, token)
	if err != nil {
		p.fail(job, Standardize(nil, err, name, token, "", ""))
		return
	}

	req := &types.Request{
		Content:  src.Data,
		URL:      src.URL,
		Name:     name,
		Type:     token,
		APIKey:   opts.OCRKey(),
		Options:  opts,
		Progress: job.tracker.Band(20, 90),
	}

	if req.Content == nil && src.Path != "" {
		data, readErr := os.ReadFile(src.Path)
		if readErr != nil {
			p.fail(job, Standardize(nil, fmt.Errorf("reading %s: %w", src.Path, readErr),
				name, token, descriptor.Type, descriptor.Category))
			return
		}
		req.Content = data
	}

	job.tracker.Update(20, "converting")
	job.setStatus(types.StatusProcessingResults)

	raw, convErr := p.invoke(ctx, descriptor, req)
	res := Standardize(raw, convErr, name, token, descriptor.Type, descriptor.Category)

	if res.Success {
		job.tracker.Update(95, string(types.StatusGeneratingMarkdown))
		job.finish(types.StatusCompleted, res, "")
		return
	}
	p.fail(job, res)
}

// fail delivers a failed result as the job's terminal state.
func (p *Pipeline) fail(job *Job, res *types.Result) {
	fmt.Fprintf(p.Log, "conversion %s failed: %s\n", job.ID, res.Error)
	job.finish(types.StatusFailed, res, res.Error)
}

// resolve looks the token up with the bounded retry schedule: immediate,
// then +500 ms, then +1 s. An unsupported token does not improve with
// time, so it fails on the first attempt without the retry delays.
func (p *Pipeline) resolve(ctx context.Context, token string) (*types.Descriptor, error) {
	var lastErr error
	for i, delay := range resolveDelays {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		d, err := p.Registry.Resolve(token)
		if err == nil {
			return d, nil
		}
		var unsupported *types.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			return nil, err
		}
		lastErr = err

		if i < len(resolveDelays)-1 {
			fmt.Fprintf(p.Log, "converter for %q not available yet, retrying\n", token)
		}
	}
	return nil, lastErr
}

// invoke calls the converter, converting a panic into an error so no
// converter fault crosses the facade boundary.
func (p *Pipeline) invoke(ctx context.Context, d *types.Descriptor, req *types.Request) (res *types.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(p.Log, "converter %s panicked: %v\n%s\n", d.Type, r, debug.Stack())
			res = nil
			err = &types.ConversionError{
				Converter: d.Type,
				Err:       fmt.Errorf("converter panicked: %v", r),
			}
		}
	}()
	return d.Converter.Convert(ctx, req)
}

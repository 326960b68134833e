// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/convert-engine/internal/registry"
	"github.com/pdiddy/convert-engine/pkg/types"
)

func init() {
	// Keep the resolution retry schedule fast in tests.
	resolveDelays = []time.Duration{0, time.Millisecond, 2 * time.Millisecond}
}

// echoConverter returns its input as Markdown.
type echoConverter struct{}

func (echoConverter) Convert(_ context.Context, req *types.Request) (*types.Result, error) {
	types.Report(req.Progress, 50, "echoing")
	return &types.Result{
		Success:  true,
		Content:  "# " + req.Name + "\n\n" + string(req.Content),
		Metadata: map[string]any{"converter": "echo"},
	}, nil
}

// panicConverter always panics.
type panicConverter struct{}

func (panicConverter) Convert(context.Context, *types.Request) (*types.Result, error) {
	panic("native library segfault")
}

func testPipeline(descriptors ...types.Descriptor) *Pipeline {
	reg := registry.New(&bytes.Buffer{}, registry.Provider{
		Name:  "test",
		Build: func() ([]types.Descriptor, error) { return descriptors, nil },
	})
	return New(reg, &bytes.Buffer{})
}

func txtDescriptor() types.Descriptor {
	return types.Descriptor{
		Type: "txt", Tokens: []string{"txt"},
		Category: types.CategoryData, Converter: echoConverter{},
	}
}

func TestConvert_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := testPipeline(txtDescriptor())
	res := p.Convert(context.Background(), Source{Path: path}, types.Options{})

	if !res.Success {
		t.Fatalf("Success = false: %s", res.Error)
	}
	if !strings.Contains(res.Content, "hello world") {
		t.Errorf("content missing file body: %q", res.Content)
	}
	if res.Name != "notes" || res.Type != "txt" {
		t.Errorf("derived name/type = %q/%q", res.Name, res.Type)
	}
	if res.ConverterName() != "echo" {
		t.Errorf("converter = %q, want echo", res.ConverterName())
	}
}

func TestConvert_UnsupportedType(t *testing.T) {
	p := testPipeline(txtDescriptor())
	res := p.Convert(context.Background(), Source{Data: []byte("x")}, types.Options{FileType: "xyz"})

	if res.Success {
		t.Fatal("unknown token must fail")
	}
	if !strings.Contains(res.Error, "unsupported") {
		t.Errorf("error = %q, want unsupported-type message", res.Error)
	}
	if strings.TrimSpace(res.Content) == "" {
		t.Error("failed result still carries a diagnostic document")
	}
}

func TestConvert_UnsupportedTypeSkipsRetryDelays(t *testing.T) {
	// The retry schedule exists for a registry still initializing; an
	// unknown token fails identically on every attempt, so the first
	// answer is final.
	saved := resolveDelays
	resolveDelays = []time.Duration{0, 300 * time.Millisecond, 600 * time.Millisecond}
	defer func() { resolveDelays = saved }()

	p := testPipeline(txtDescriptor())
	start := time.Now()
	res := p.Convert(context.Background(), Source{Data: []byte("x")}, types.Options{FileType: "xyz"})

	if res.Success {
		t.Fatal("unknown token must fail")
	}
	if elapsed := time.Since(start); elapsed >= 300*time.Millisecond {
		t.Errorf("unsupported token took %v, want failure before the first retry delay", elapsed)
	}
}

func TestConvert_MissingFile(t *testing.T) {
	p := testPipeline(txtDescriptor())
	res := p.Convert(context.Background(), Source{Path: "/does/not/exist.txt"}, types.Options{})

	if res.Success {
		t.Fatal("unreadable source must fail")
	}
	if !strings.Contains(res.Error, "exist.txt") {
		t.Errorf("error should name the path: %q", res.Error)
	}
}

func TestConvert_PanicBecomesFailedResult(t *testing.T) {
	p := testPipeline(types.Descriptor{
		Type: "bin", Tokens: []string{"bin"},
		Category: types.CategoryData, Converter: panicConverter{},
	})

	res := p.Convert(context.Background(), Source{Data: []byte{1, 2}}, types.Options{FileType: "bin"})

	if res.Success {
		t.Fatal("panicking converter must yield a failed result, not a crash")
	}
	if !strings.Contains(res.Error, "panicked") {
		t.Errorf("error = %q, want panic conversion", res.Error)
	}
}

func TestSubmit_ProgressThenTerminal(t *testing.T) {
	p := testPipeline(txtDescriptor())
	job := p.Submit(context.Background(), Source{Data: []byte("body")}, types.Options{FileType: "txt"})

	var percents []int
	for ev := range job.Events() {
		percents = append(percents, ev.Percent)
	}
	<-job.Done()

	res := job.Result()
	if res == nil || !res.Success {
		t.Fatal("expected successful terminal result")
	}
	if len(percents) == 0 {
		t.Fatal("expected progress events before the terminal result")
	}
	last := -1
	for _, pct := range percents {
		if pct < last {
			t.Fatalf("progress regressed: %v", percents)
		}
		last = pct
	}
	if last != 100 {
		t.Errorf("last progress = %d, want 100", last)
	}

	if _, ok := p.Jobs.Get(job.ID); ok {
		t.Error("terminal job must be evicted from the job map")
	}
}

func TestCancel_DiscardsResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := types.Descriptor{
		Type: "slow", Tokens: []string{"slow"},
		Category: types.CategoryData,
		Converter: converterFunc(func(_ context.Context, _ *types.Request) (*types.Result, error) {
			close(started)
			<-release
			return &types.Result{Success: true, Content: "late"}, nil
		}),
	}

	p := testPipeline(slow)
	job := p.Submit(context.Background(), Source{Data: []byte("x")}, types.Options{FileType: "slow"})

	<-started
	if !p.Jobs.Cancel(job.ID) {
		t.Fatal("cancel should find the active job")
	}
	close(release)

	<-job.Done()
	if job.Status() != types.StatusCancelled {
		t.Errorf("status = %q, want cancelled", job.Status())
	}
	// The in-flight result arrives later and is discarded; the terminal
	// state was delivered exactly once.
	time.Sleep(10 * time.Millisecond)
	if job.Result() != nil {
		t.Error("cancelled job must not surface the late result")
	}
	if _, ok := p.Jobs.Get(job.ID); ok {
		t.Error("cancelled job must be evicted")
	}
}

func TestCancel_UnknownJob(t *testing.T) {
	p := testPipeline(txtDescriptor())
	if p.Jobs.Cancel("nope") {
		t.Error("cancelling an unknown job must report false")
	}
}

// converterFunc adapts a function to types.Converter.
type converterFunc func(context.Context, *types.Request) (*types.Result, error)

func (f converterFunc) Convert(ctx context.Context, req *types.Request) (*types.Result, error) {
	return f(ctx, req)
}

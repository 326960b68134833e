// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"sync"
	"time"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// progressBuffer bounds the event channel; when a consumer lags, the
// oldest event is dropped in favor of the newest.
const progressBuffer = 64

// defaultMinInterval throttles intermediate updates to bound event
// volume. Boundary values (0 and 100) always pass.
const defaultMinInterval = 250 * time.Millisecond

// Tracker carries a job's progress as a channel of events. Reported
// values are clamped monotonic: a regression is ignored rather than
// emitted. Sub-operations report through a Band, which rescales their
// self-reported 0-100 into a reserved slice of the overall range.
type Tracker struct {
	jobID string

	mu          sync.Mutex
	ch          chan types.Progress
	last        int
	lastEmit    time.Time
	minInterval time.Duration
	closed      bool
}

// NewTracker creates a tracker for one job.
func NewTracker(jobID string) *Tracker {
	return &Tracker{
		jobID:       jobID,
		ch:          make(chan types.Progress, progressBuffer),
		last:        -1,
		minInterval: defaultMinInterval,
	}
}

// Events returns the progress side-channel. It is closed after the
// terminal update, strictly after all progress events.
func (t *Tracker) Events() <-chan types.Progress {
	return t.ch
}

// Update reports progress over the whole 0-100 range. Implements
// types.ProgressSink.
func (t *Tracker) Update(percent int, stage string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || percent < t.last {
		return
	}

	now := time.Now()
	boundary := percent == 0 || percent == 100
	if !boundary && percent == t.last {
		return
	}
	if !boundary && !t.lastEmit.IsZero() && now.Sub(t.lastEmit) < t.minInterval {
		// Remember the level so monotonicity holds, but skip the event.
		t.last = percent
		return
	}

	t.last = percent
	t.lastEmit = now
	t.emit(types.Progress{JobID: t.jobID, Percent: percent, Stage: stage})
}

// Current returns the highest progress value reported so far.
func (t *Tracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last < 0 {
		return 0
	}
	return t.last
}

// Close ends the event stream. Safe to call more than once.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.ch)
	}
}

// emit delivers without blocking; when the buffer is full the oldest
// event is dropped. Callers hold t.mu.
func (t *Tracker) emit(p types.Progress) {
	select {
	case t.ch <- p:
		return
	default:
	}
	select {
	case <-t.ch:
	default:
	}
	select {
	case t.ch <- p:
	default:
	}
}

// Band rescales a sub-operation's 0-100 progress into [lo,hi] of the
// parent tracker, reserving the rest of the range for setup and
// finalization.
type Band struct {
	parent *Tracker
	lo, hi int
}

// Band returns a ProgressSink over the [lo,hi] sub-band.
func (t *Tracker) Band(lo, hi int) *Band {
	if lo < 0 {
		lo = 0
	}
	if hi > 100 {
		hi = 100
	}
	if hi < lo {
		hi = lo
	}
	return &Band{parent: t, lo: lo, hi: hi}
}

// Update implements types.ProgressSink.
func (b *Band) Update(percent int, stage string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	scaled := b.lo + (b.hi-b.lo)*percent/100
	b.parent.Update(scaled, stage)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JobStatus tracks one conversion job through its lifecycle. The OCR
// conversion manager walks the intermediate states in order; every
// non-terminal state can transition to StatusFailed.
type JobStatus string

const (
	StatusStarting           JobStatus = "starting"
	StatusExtractingMetadata JobStatus = "extracting_metadata"
	StatusProcessingOCR      JobStatus = "processing_ocr"
	StatusProcessingResults  JobStatus = "processing_results"
	StatusGeneratingMarkdown JobStatus = "generating_markdown"
	StatusCompleted          JobStatus = "completed"
	StatusFailed             JobStatus = "failed"
	StatusCancelled          JobStatus = "cancelled"
)

// Terminal reports whether the status ends the job. Terminal jobs are
// evicted from the in-memory job map.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// JobSnapshot is a point-in-time view of a tracked job, safe to hand to
// callers and to serialize over the HTTP surface.
type JobSnapshot struct {
	ID        string    `json:"id" yaml:"id"`
	Status    JobStatus `json:"status" yaml:"status"`
	Progress  int       `json:"progress" yaml:"progress"`
	StartTime time.Time `json:"startTime" yaml:"start_time"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

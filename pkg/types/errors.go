// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ValidationError reports a missing or malformed required option.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnsupportedTypeError reports that no converter is registered for a
// type token.
type UnsupportedTypeError struct {
	Token string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q", e.Token)
}

// ResolutionError reports that converter discovery exhausted every
// configured provider. The embedded minimal registry installs before this
// surfaces to callers, so it is rarely fatal.
type ResolutionError struct {
	Failures []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("converter discovery exhausted: %d provider(s) failed", len(e.Failures))
}

// RemoteServiceError reports a failed call to the remote OCR service,
// classified by HTTP status. Hint carries remediation guidance for 5xx
// and other actionable statuses.
type RemoteServiceError struct {
	StatusCode int
	Message    string
	Hint       string
}

func (e *RemoteServiceError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("remote OCR service returned HTTP %d: %s (%s)", e.StatusCode, e.Message, e.Hint)
	}
	return fmt.Sprintf("remote OCR service returned HTTP %d: %s", e.StatusCode, e.Message)
}

// ConversionError reports a converter-internal failure.
type ConversionError struct {
	Converter string
	Err       error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converter %s: %v", e.Converter, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

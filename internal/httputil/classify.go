// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import "net/http"

// Remediation hints attached to OCR service failures. 5xx responses in
// particular must reach the user as actionable guidance, not a bare
// status code.
const (
	HintPayloadTooLarge = "the document likely exceeds the service's upload limit; split the PDF or reduce its size"
	HintRateLimited     = "the service is rate limiting this key; wait a minute and retry, or reduce request volume"
	HintAuth            = "the API key was rejected; verify the key and its subscription status"
	HintTransientOutage = "the service reported an internal problem; this is usually transient, retry in a few minutes"
	HintUnavailable     = "the service is temporarily unavailable or overloaded; retry with backoff"
)

// ClassifyStatus maps an HTTP status code from the remote OCR service to
// a remediation hint. Returns "" for statuses with no specific guidance.
func ClassifyStatus(code int) string {
	switch code {
	case http.StatusRequestEntityTooLarge:
		return HintPayloadTooLarge
	case http.StatusTooManyRequests:
		return HintRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return HintAuth
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return HintUnavailable
	}
	if code >= 500 {
		return HintTransientOutage
	}
	return ""
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/http"
	"strings"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{http.StatusRequestEntityTooLarge, "upload limit"},
		{http.StatusTooManyRequests, "rate limiting"},
		{http.StatusUnauthorized, "API key"},
		{http.StatusForbidden, "API key"},
		{http.StatusBadGateway, "temporarily unavailable"},
		{http.StatusServiceUnavailable, "temporarily unavailable"},
		{http.StatusGatewayTimeout, "temporarily unavailable"},
		{http.StatusInternalServerError, "transient"},
		{599, "transient"},
		{http.StatusOK, ""},
		{http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		got := ClassifyStatus(tt.code)
		if tt.want == "" {
			if got != "" {
				t.Errorf("ClassifyStatus(%d) = %q, want empty", tt.code, got)
			}
			continue
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("ClassifyStatus(%d) = %q, want substring %q", tt.code, got, tt.want)
		}
	}
}

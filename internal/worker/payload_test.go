// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package worker

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"
)

// The four wire representations a payload may arrive in. Each is pushed
// through a JSON round trip first, matching how convert requests really
// reach the decoder.
func TestDecodePayload_FourFormRoundTrip(t *testing.T) {
	payload := []byte{0, 1, 2, 127, 128, 200, 255, '\n', '"'}

	forms := map[string]any{
		"canonical prefixed string": EncodePayload(payload),
		"bare string":               string([]byte("plain text payload")),
		"number array":              toNumberArray(payload),
		"buffer envelope": map[string]any{
			"type": "Buffer",
			"data": toNumberArray(payload),
		},
	}

	for name, form := range forms {
		t.Run(name, func(t *testing.T) {
			decoded := jsonRoundTrip(t, form)
			got, err := DecodePayload(decoded)
			if err != nil {
				t.Fatal(err)
			}

			want := payload
			if name == "bare string" {
				want = []byte("plain text payload")
			}
			if !bytes.Equal(got, want) {
				t.Errorf("round trip mismatch:\n got %v\nwant %v", got, want)
			}
		})
	}
}

func TestDecodePayload_NestedBufferProperty(t *testing.T) {
	payload := []byte("nested")
	form := jsonRoundTrip(t, map[string]any{"buffer": EncodePayload(payload)})

	got, err := DecodePayload(form)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestDecodePayload_GenericObjectFallback(t *testing.T) {
	form := jsonRoundTrip(t, map[string]any{"unexpected": "shape", "n": 3})

	got, err := DecodePayload(form)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(got, &back); err != nil {
		t.Fatalf("fallback output is not JSON: %v", err)
	}
	if back["unexpected"] != "shape" {
		t.Errorf("fallback lost data: %v", back)
	}
}

func TestDecodePayload_Nil(t *testing.T) {
	got, err := DecodePayload(nil)
	if err != nil || got != nil {
		t.Errorf("nil payload = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestDecodePayload_BadBase64(t *testing.T) {
	if _, err := DecodePayload("base64:!!not-base64!!"); err == nil {
		t.Error("corrupt canonical payload must error, not pass through")
	}
}

func TestDecodePayload_BadNumberArray(t *testing.T) {
	for _, bad := range [][]any{
		{float64(300)},
		{float64(-1)},
		{float64(1.5)},
		{"x"},
	} {
		if _, err := DecodePayload(bad); err == nil {
			t.Errorf("array %v must be rejected", bad)
		}
	}
}

func TestEncodePayload_Canonical(t *testing.T) {
	payload := []byte{0xde, 0xad}
	got := EncodePayload(payload)
	want := "base64:" + base64.StdEncoding.EncodeToString(payload)
	if got != want {
		t.Errorf("EncodePayload = %q, want %q", got, want)
	}
}

func toNumberArray(data []byte) []any {
	out := make([]any, len(data))
	for i, b := range data {
		out[i] = float64(b)
	}
	return out
}

// jsonRoundTrip re-encodes a value the way it would cross the process
// boundary, so the decoder sees real wire shapes.
func jsonRoundTrip(t *testing.T, v any) any {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	return out
}

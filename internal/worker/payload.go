// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package worker

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// base64Prefix marks the canonical string form of a byte payload.
const base64Prefix = "base64:"

// EncodePayload renders bytes in the canonical wire form. Every sender
// in this process uses it; the tolerant decoder below exists for
// payloads that crossed other serialization layers first.
func EncodePayload(data []byte) string {
	return base64Prefix + base64.StdEncoding.EncodeToString(data)
}

// DecodePayload reconstructs a byte buffer from whatever shape the
// content field arrived in. The cascade is total: every branch either
// produces bytes or falls through to the generic JSON rendering, so the
// worker never rejects a convert request over payload shape.
//
// Accepted forms, in order:
//  1. a string carrying the canonical base64 prefix
//  2. a bare string (UTF-8 bytes as-is)
//  3. a JSON array of numbers
//  4. an envelope {"type":"Buffer","data":[...]} or {"buffer": ...}
//  5. anything else, re-marshalled as JSON
func DecodePayload(content any) ([]byte, error) {
	switch v := content.(type) {
	case nil:
		return nil, nil

	case []byte:
		return v, nil

	case string:
		if encoded, ok := strings.CutPrefix(v, base64Prefix); ok {
			data, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, fmt.Errorf("decoding base64 payload: %w", err)
			}
			return data, nil
		}
		return []byte(v), nil

	case []any:
		return numbersToBytes(v)

	case map[string]any:
		if v["type"] == "Buffer" {
			if list, ok := v["data"].([]any); ok {
				return numbersToBytes(list)
			}
		}
		if inner, ok := v["buffer"]; ok {
			return DecodePayload(inner)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("re-encoding object payload: %w", err)
		}
		return data, nil

	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("re-encoding %T payload: %w", content, err)
		}
		return data, nil
	}
}

func numbersToBytes(list []any) ([]byte, error) {
	out := make([]byte, len(list))
	for i, el := range list {
		n, ok := el.(float64)
		if !ok || n < 0 || n > 255 || n != float64(int(n)) {
			return nil, fmt.Errorf("payload element %d is not a byte value: %v", i, el)
		}
		out[i] = byte(n)
	}
	return out, nil
}

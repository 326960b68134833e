// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package worker isolates crash-prone conversions in a child process.
// Parent and child speak a line-delimited JSON protocol over the
// child's stdin and stdout: one convert request in, zero or more
// progress messages out, then exactly one result or error message.
package worker

import (
	"encoding/json"
	"fmt"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// Message type tags on the wire.
const (
	MsgConvert  = "convert"
	MsgProgress = "progress"
	MsgResult   = "result"
	MsgError    = "error"
)

// Message is the protocol envelope.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Item is the payload of a convert request. Content is declared as any
// because upstream serialization may have mangled the byte buffer; the
// receiving side reconstructs it with DecodePayload.
type Item struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	APIKey  string `json:"apiKey,omitempty"`
	Content any    `json:"content"`
}

// ConvertData is the body of a convert message.
type ConvertData struct {
	ID      string        `json:"id"`
	Item    Item          `json:"item"`
	Options types.Options `json:"options"`
}

// ProgressData is the body of a progress message.
type ProgressData struct {
	TaskID   string `json:"taskId"`
	Progress int    `json:"progress"`
}

// ErrorData is the body of a terminal error message.
type ErrorData struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	TaskID  string `json:"taskId"`
}

// Encode wraps a body in an envelope and renders one wire line.
func Encode(msgType string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s body: %w", msgType, err)
	}
	line, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encoding %s envelope: %w", msgType, err)
	}
	return append(line, '\n'), nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// maxLineBytes bounds a single protocol line. Payloads are base64 so a
// large document still fits well under this.
const maxLineBytes = 256 << 20

// ConvertFunc performs the actual conversion inside the child. Progress
// callbacks map to progress messages on the wire.
type ConvertFunc func(ctx context.Context, req ConvertData, progress func(int)) (*types.Result, error)

// Child runs the worker side of the protocol.
type Child struct {
	In      io.Reader
	Out     io.Writer
	Convert ConvertFunc
}

// Run reads one convert request, executes it, and writes the terminal
// message. Any fault, panics included, becomes a terminal error message
// before a non-nil return; the caller exits non-zero on error so the
// parent sees a dead unit, never a silent one.
func (c *Child) Run(ctx context.Context) error {
	req, err := c.readRequest()
	if err != nil {
		c.writeError("", err)
		return err
	}

	res, convErr := c.runGuarded(ctx, req)
	if convErr != nil {
		c.writeError(req.ID, convErr)
		return convErr
	}

	line, err := Encode(MsgResult, res)
	if err != nil {
		c.writeError(req.ID, err)
		return err
	}
	_, err = c.Out.Write(line)
	return err
}

func (c *Child) readRequest() (ConvertData, error) {
	scanner := bufio.NewScanner(c.In)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return ConvertData{}, fmt.Errorf("reading request: %w", err)
		}
		return ConvertData{}, fmt.Errorf("stdin closed before a request arrived")
	}

	var msg Message
	if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
		return ConvertData{}, fmt.Errorf("parsing request envelope: %w", err)
	}
	if msg.Type != MsgConvert {
		return ConvertData{}, fmt.Errorf("unexpected message type %q, want %q", msg.Type, MsgConvert)
	}

	var req ConvertData
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return ConvertData{}, fmt.Errorf("parsing convert body: %w", err)
	}
	return req, nil
}

// runGuarded invokes the conversion with a panic guard.
func (c *Child) runGuarded(ctx context.Context, req ConvertData) (res *types.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panicked: %v\n%s", r, debug.Stack())
		}
	}()

	progress := func(pct int) {
		line, encErr := Encode(MsgProgress, ProgressData{TaskID: req.ID, Progress: pct})
		if encErr != nil {
			return
		}
		c.Out.Write(line)
	}

	return c.Convert(ctx, req, progress)
}

func (c *Child) writeError(taskID string, cause error) {
	line, err := Encode(MsgError, ErrorData{
		Message: cause.Error(),
		Stack:   string(debug.Stack()),
		TaskID:  taskID,
	})
	if err != nil {
		return
	}
	c.Out.Write(line)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// executor abstracts subprocess execution for testing.
type executor interface {
	// Start launches the worker command and returns its stdin, stdout
	// and a wait function that reports the exit status.
	Start(ctx context.Context, name string, args ...string) (io.WriteCloser, io.Reader, func() error, error)
}

// osExecutor is the production executor backed by os/exec. The child's
// stderr passes through to ours so native library noise stays visible.
type osExecutor struct{}

func (osExecutor) Start(ctx context.Context, name string, args ...string) (io.WriteCloser, io.Reader, func() error, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, nil, fmt.Errorf("starting worker: %w", err)
	}
	return stdin, stdout, cmd.Wait, nil
}

// Pool runs isolated conversions, one child process per request. A
// child that dies without a terminal message is reported as an error;
// the request is never resubmitted into a dead unit.
type Pool struct {
	// Binary is the worker executable, normally our own binary
	// re-invoked with the worker subcommand.
	Binary string
	Args   []string
	Log    io.Writer

	exec executor
}

// NewPool builds a pool that re-invokes the current executable as a
// worker child.
func NewPool(log io.Writer) *Pool {
	binary, err := os.Executable()
	if err != nil {
		binary = os.Args[0]
	}
	if log == nil {
		log = io.Discard
	}
	return &Pool{
		Binary: binary,
		Args:   []string{"worker"},
		Log:    log,
		exec:   osExecutor{},
	}
}

// Run executes one conversion in a fresh child. Progress messages are
// forwarded to the sink; the terminal result or error message decides
// the return value.
func (p *Pool) Run(ctx context.Context, req ConvertData, progress types.ProgressSink) (*types.Result, error) {
	stdin, stdout, wait, err := p.exec.Start(ctx, p.Binary, p.Args...)
	if err != nil {
		return nil, err
	}

	line, err := Encode(MsgConvert, req)
	if err != nil {
		stdin.Close()
		wait()
		return nil, err
	}
	if _, err := stdin.Write(line); err != nil {
		stdin.Close()
		wait()
		return nil, fmt.Errorf("sending request to worker: %w", err)
	}
	stdin.Close()

	result, termErr := p.readMessages(stdout, req.ID, progress)
	waitErr := wait()

	switch {
	case termErr != nil:
		return nil, termErr
	case result != nil:
		return result, nil
	case waitErr != nil:
		return nil, fmt.Errorf("worker exited without a terminal message: %w", waitErr)
	default:
		return nil, fmt.Errorf("worker closed its output without a terminal message")
	}
}

// readMessages consumes the child's output until a terminal message or
// EOF. Exactly one of result and error is non-nil on a clean run.
func (p *Pool) readMessages(stdout io.Reader, taskID string, progress types.ProgressSink) (*types.Result, error) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)

	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			fmt.Fprintf(p.Log, "worker %s emitted an unparseable line, skipping\n", taskID)
			continue
		}

		switch msg.Type {
		case MsgProgress:
			var pd ProgressData
			if err := json.Unmarshal(msg.Data, &pd); err == nil {
				types.Report(progress, pd.Progress, "converting")
			}

		case MsgResult:
			var res types.Result
			if err := json.Unmarshal(msg.Data, &res); err != nil {
				return nil, fmt.Errorf("parsing worker result: %w", err)
			}
			return &res, nil

		case MsgError:
			var ed ErrorData
			if err := json.Unmarshal(msg.Data, &ed); err != nil {
				return nil, fmt.Errorf("parsing worker error: %w", err)
			}
			fmt.Fprintf(p.Log, "worker %s failed: %s\n%s\n", taskID, ed.Message, ed.Stack)
			return nil, &types.ConversionError{
				Converter: "worker",
				Err:       fmt.Errorf("%s", ed.Message),
			}

		default:
			fmt.Fprintf(p.Log, "worker %s sent unknown message type %q\n", taskID, msg.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading worker output: %w", err)
	}
	return nil, nil
}

// Package worker implements the extraction worker protocol. Every extraction
// call is one short-lived subprocess: the request payload goes to stdin in a
// single write, stdout and stderr fill independent buffers until the process
// exits, then stdout is decoded exactly once as a single JSON object. Stderr
// carries line-oriented advisory tags that are surfaced in logs and never
// influence the result.
package worker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/clearviewfp/report-engine/internal/observability"
)

// Tag tokens recognised on the diagnostic channel.
const (
	TagProvider = "PROVIDER:"
	TagChart    = "CHART:"
)

// Request describes one worker invocation.
type Request struct {
	Command string
	Args    []string
	// Payload is written to the worker's stdin in one pass, then stdin is
	// closed to signal end-of-input. Nil means the worker reads nothing.
	Payload []byte
}

// Raw is the collected outcome of one invocation. The exit state is recorded
// for logging but only the output buffer decides success of the call.
type Raw struct {
	Stdout   []byte
	Tags     []string
	ExitCode int
	Err      error
	Duration time.Duration
}

// Runner launches extraction workers with a bounded per-invocation timeout.
type Runner struct {
	logger  *observability.Logger
	timeout time.Duration
}

// NewRunner creates a Runner. A zero timeout disables the bound.
func NewRunner(logger *observability.Logger, timeout time.Duration) *Runner {
	return &Runner{logger: logger, timeout: timeout}
}

// Invoke starts the worker and delivers the collected outcome on the
// returned channel once the process exits. The channel is buffered so the
// caller may abandon it without leaking the goroutine.
func (r *Runner) Invoke(ctx context.Context, req Request) <-chan Raw {
	out := make(chan Raw, 1)
	go func() {
		out <- r.run(ctx, req)
	}()
	return out
}

func (r *Runner) run(ctx context.Context, req Request) Raw {
	start := time.Now()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, req.Command, req.Args...)
	// A killed worker can leave grandchildren holding the output pipes open;
	// don't let them stall Wait past the deadline.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if req.Payload != nil {
		cmd.Stdin = bytes.NewReader(req.Payload)
	}

	r.logger.Debug().
		Str("command", req.Command).
		Strs("args", req.Args).
		Int("payload_bytes", len(req.Payload)).
		Msg("Invoking extraction worker")

	err := cmd.Run()

	raw := Raw{
		Stdout:   stdout.Bytes(),
		Tags:     ScanTags(stderr.Bytes()),
		Duration: time.Since(start),
	}

	if err != nil {
		raw.Err = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			raw.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			raw.Err = fmt.Errorf("worker %s: %w", req.Command, ctx.Err())
		}
		r.logger.Warn().
			Err(raw.Err).
			Str("command", req.Command).
			Int("exit_code", raw.ExitCode).
			Dur("duration", raw.Duration).
			Msg("Extraction worker exited abnormally")
	}

	for _, tag := range raw.Tags {
		r.logger.Info().
			Str("command", req.Command).
			Str("tag", tag).
			Msg("Worker diagnostic")
	}

	r.logger.Debug().
		Str("command", req.Command).
		Int("stdout_bytes", len(raw.Stdout)).
		Int("exit_code", raw.ExitCode).
		Dur("duration", raw.Duration).
		Msg("Extraction worker finished")

	return raw
}

// ScanTags pulls recognised advisory tags out of the diagnostic channel.
// A tag is any line containing one of the tag tokens; the tag runs from the
// token to the end of the line.
func ScanTags(stderr []byte) []string {
	var tags []string

	scanner := bufio.NewScanner(bytes.NewReader(stderr))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		for _, token := range []string{TagProvider, TagChart} {
			if i := strings.Index(line, token); i >= 0 {
				tags = append(tags, strings.TrimSpace(line[i:]))
				break
			}
		}
	}

	return tags
}

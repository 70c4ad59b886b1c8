// Package runner executes the wrapped command and reduces whatever
// happened to it into a single Result record.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cronguard/cronguard/internal/model"
)

// pollInterval is how often a running command is checked against its
// timeout.
const pollInterval = 100 * time.Millisecond

// Result is one execution record. It doubles as the persisted wire format,
// the JSON tags are load-bearing.
type Result struct {
	ExitCode      int     `json:"exit_code"`
	Stdout        string  `json:"stdout"`
	Stderr        string  `json:"stderr"`
	StartTime     float64 `json:"start_time"`
	RunTime       float64 `json:"run_time"`
	InternalError *string `json:"internal_error,omitempty"`
}

// Failed reports whether the run counts as a failure: a non-zero exit code
// or any internal error. Internal-error records carry exit code 0, the
// code alone is not enough.
func (r Result) Failed() bool {
	return r.ExitCode != 0 || r.InternalError != nil
}

// internalError builds the degenerate record for runs that never produced
// a usable exit status.
func internalError(format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	return Result{InternalError: &msg}
}

type waitStatus struct {
	copyErr error
	waitErr error
}

// Execute runs cmd and always returns a Result; failing to even start or
// observe the command is folded into Result.InternalError. A zero timeout
// lets the command run unbounded. Cancelling ctx kills the command.
func Execute(ctx context.Context, cmd model.Command, timeout time.Duration) Result {
	if len(cmd.Argv) == 0 {
		return internalError("failed to spawn child: no command")
	}

	var c *exec.Cmd
	if cmd.Shell {
		c = exec.Command("bash", "-c", cmd.CLI())
	} else {
		c = exec.Command(cmd.Argv[0], cmd.Argv[1:]...)
	}

	stdout, err := c.StdoutPipe()
	if err != nil {
		return internalError("failed to spawn child: %v", err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return internalError("failed to spawn child: %v", err)
	}

	// stdout and stderr stay separate, reports render them as two sections
	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})

	start := time.Now()
	if err := c.Start(); err != nil {
		_ = g.Wait()
		return internalError("failed to spawn child: %v", err)
	}

	done := make(chan waitStatus, 1)
	go func() {
		var ws waitStatus
		// the pipes must drain before Wait closes them
		ws.copyErr = g.Wait()
		ws.waitErr = c.Wait()
		done <- ws
	}()

	if timeout > 0 {
		deadline := start.Add(timeout)
		for {
			select {
			case ws := <-done:
				return finish(ws, &outBuf, &errBuf, start)
			case <-ctx.Done():
				return killInterrupted(ctx, c, done)
			case <-time.After(pollInterval):
			}
			if time.Now().Before(deadline) {
				continue
			}
			// the command may have finished right on the deadline
			select {
			case ws := <-done:
				return finish(ws, &outBuf, &errBuf, start)
			default:
			}
			return killTimedOut(c, done, start, timeout)
		}
	}

	select {
	case ws := <-done:
		return finish(ws, &outBuf, &errBuf, start)
	case <-ctx.Done():
		return killInterrupted(ctx, c, done)
	}
}

func finish(ws waitStatus, outBuf, errBuf *bytes.Buffer, start time.Time) Result {
	var exitErr *exec.ExitError
	switch {
	case ws.waitErr != nil && !errors.As(ws.waitErr, &exitErr):
		return internalError("failure running child: %v", ws.waitErr)
	case ws.copyErr != nil:
		return internalError("collecting command output: %v", ws.copyErr)
	}

	res := Result{
		Stdout:    outBuf.String(),
		Stderr:    errBuf.String(),
		StartTime: unixSeconds(start),
		RunTime:   time.Since(start).Seconds(),
	}
	if exitErr != nil {
		// -1 when the child died on a signal
		res.ExitCode = exitErr.ExitCode()
	}
	return res
}

// killTimedOut ends a run that exceeded its timeout. The captured output is
// dropped on purpose: the record documents the kill, not the partial run.
func killTimedOut(c *exec.Cmd, done <-chan waitStatus, start time.Time, timeout time.Duration) Result {
	if err := c.Process.Kill(); err != nil {
		<-done
		return internalError("failed to kill subprocess: %v", err)
	}
	<-done
	msg := fmt.Sprintf("command reached timeout of %g secs", timeout.Seconds())
	return Result{
		ExitCode:      -1,
		StartTime:     unixSeconds(start),
		RunTime:       time.Since(start).Seconds(),
		InternalError: &msg,
	}
}

func killInterrupted(ctx context.Context, c *exec.Cmd, done <-chan waitStatus) Result {
	_ = c.Process.Kill()
	<-done
	return internalError("command interrupted: %v", ctx.Err())
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

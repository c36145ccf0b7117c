package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"
)

// gateway serves single requests by handing them to the CGI program
type gateway struct {
	launch     launchConfig
	parse      parseOptions
	forwardErr bool
	stderr     io.Writer
}

func newGateway(args arguments) *gateway {
	return &gateway{
		launch: launchConfig{
			Program: args.Program,
			Args:    args.Args,
			Root:    args.Root,
			Inherit: os.Environ(),
		},
		parse:      parseOptions{Strict: args.Strict},
		forwardErr: args.ForwardErr,
		stderr:     os.Stderr,
	}
}

// serve reads one request from in, runs the CGI program and relays its output
// to out. If the request fails before the program started, a status line is
// written to out. The returned error is nil only after a complete relay.
func (g *gateway) serve(ctx context.Context, in io.Reader, out io.Writer, amb Ambient) error {
	br := bufio.NewReader(in)

	err := g.start(ctx, br, out, amb)
	if err == nil {
		return nil
	}
	var rf *relayFault
	if errors.As(err, &rf) {
		return err
	}

	se := asStatusError(err)
	slog.Warn("request aborted", "status", se.Code, "error", err)
	if werr := writeStatusLine(out, se); werr != nil {
		slog.Error("failed to write status line", "error", werr)
	}
	return se
}

// start covers the part of a request during which a status line may still be
// sent. Once the program is running, relay faults are only logged and returned.
func (g *gateway) start(ctx context.Context, br *bufio.Reader, out io.Writer, amb Ambient) error {
	req, err := readRequest(br, amb, g.parse)
	if err != nil {
		return err
	}

	cmd, err := prepareCGICommand(ctx, g.launch, req.Env)
	if err != nil {
		return internalError(fmt.Errorf("preparing CGI command: %w", err))
	}

	// wire stderr, stdin and stdout
	if g.forwardErr {
		lw := &lockedWriter{w: out}
		cmd.Stderr = lw
		out = lw
	} else {
		cmd.Stderr = g.stderr
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return internalError(fmt.Errorf("%w: child stdin: %v", errTransfer, err))
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return internalError(fmt.Errorf("%w: child stdout: %v", errTransfer, err))
	}

	if err := cmd.Start(); err != nil {
		return internalError(fmt.Errorf("failed to start CGI: %w", err))
	}
	slog.Debug("CGI process started", "pid", cmd.Process.Pid, "content_length", req.ContentLength)

	relayErr := relay(br, out, stdin, stdout, req.ContentLength, func() {
		// the program must not act on a truncated body or block on a dead client
		_ = cmd.Process.Kill()
	})
	if relayErr != nil {
		slog.Error("relay failed", "error", relayErr)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if relayErr == nil && !errors.As(err, &exitErr) {
			relayErr = fmt.Errorf("%w: waiting for CGI: %v", errTransfer, err)
		}
		slog.Warn("CGI exited with error", "error", err)
	}
	slog.Debug("CGI process finished", "pid", cmd.Process.Pid)

	if relayErr != nil {
		return &relayFault{err: relayErr}
	}
	return nil
}

// relay runs the exact body copy and the output relay side by side so a
// program that writes before draining its input cannot stall on full pipes
func relay(body io.Reader, out io.Writer, stdin io.WriteCloser, stdout io.Reader, length int64, abort func()) error {
	var eg errgroup.Group
	eg.Go(func() error {
		defer stdin.Close()
		n, err := copyExact(stdin, body, length)
		slog.Debug("body written to CGI", "bytes", n)
		if err != nil {
			abort()
		}
		return err
	})
	eg.Go(func() error {
		n, err := copyStream(out, stdout)
		slog.Debug("CGI output relayed", "bytes", n)
		if err != nil {
			abort()
		}
		return err
	})
	return eg.Wait()
}

// relayFault marks errors raised after the output stream was handed to the
// program. No status line may follow those.
type relayFault struct {
	err error
}

func (e *relayFault) Error() string { return e.err.Error() }
func (e *relayFault) Unwrap() error { return e.err }

// lockedWriter serializes writes from the output relay and the stderr copier
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

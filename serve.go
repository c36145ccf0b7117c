// SPDX-FileCopyrightText: 2025 2025 Lukas Heindl
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"
)

// serveListener accepts connections on --listen until a signal, the idle
// timeout or a listener failure and returns the exit code
func serveListener(g *gateway, args arguments) int {
	slog.Info("starting cgid-go listener", "workers", args.Workers, "timeout", args.Timeout, "socket", args.Listen)

	l, sockPath, err := setupListener(args.Listen)
	if err != nil {
		slog.Error("Initializing listener failed", "err", err)
		return 1
	}

	var timer *time.Timer
	var timerCh <-chan time.Time
	var timerReset func()
	if args.Timeout > 0 {
		timer = time.NewTimer(time.Duration(args.Timeout) * time.Second)
		timerCh = timer.C
		timerReset = func() {
			timer.Reset(time.Duration(args.Timeout) * time.Second)
		}
	} else {
		timerCh = make(chan time.Time) // never fires
		timerReset = func() {}
	}

	var activeJobs atomic.Int32
	var wg sync.WaitGroup
	var sem *semaphore.Weighted
	if args.Workers > 0 {
		sem = semaphore.NewWeighted(int64(args.Workers))
	}

	// cancelled only once the grace period for active requests is over
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := limitedHandler(&activeJobs, &wg, sem, timerReset, gatewayHandler(g))
	errCh := make(chan error, 1)
	go func() {
		errCh <- acceptLoop(ctx, l, h)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	code := 0
loop:
	for {
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, net.ErrClosed) {
				slog.Error("accept error", "error", err)
				code = 1
			}
			break loop
		case <-sigCh:
			slog.Info("shutdown signal received, waiting for active handlers")
			break loop
		case <-timerCh:
			if activeJobs.Load() == 0 {
				slog.Info("timeout reached and no active jobs")
				break loop
			} else {
				slog.Debug("timeout fired but there are still active jobs, resetting timer")
				timerReset()
			}
		}
	}

	// terminate / cleanup, this also ends the accept loop
	l.Close()

	c := make(chan struct{})
	go func() { wg.Wait(); close(c) }()
	select {
	case <-c:
		slog.Info("all handlers completed")
	case <-time.After(30 * time.Second):
		slog.Warn("timeout waiting for handlers to finish, killing CGI programs")
		cancel()
	}

	if sockPath != "" {
		_ = os.Remove(sockPath)
		slog.Debug("removed unix socket", "path", sockPath)
	}

	return code
}

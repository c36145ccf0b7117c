package main

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// connHandler serves a single accepted connection
type connHandler func(ctx context.Context, conn net.Conn)

// limitedHandler wraps handler to enforce limits and track active handlers
func limitedHandler(activeJobs *atomic.Int32, wg *sync.WaitGroup, sem *semaphore.Weighted, refreshTimer func(), next connHandler) connHandler {
	return func(ctx context.Context, conn net.Conn) {
		// track active
		wg.Add(1)
		defer wg.Done()
		activeJobs.Add(1)
		defer activeJobs.Add(-1)

		slog.Debug("waiting for worker slot")
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				slog.Error("Failed waiting for worker slot", "err", err)
				conn.Close()
				return
			}
			defer func() {
				sem.Release(1)
			}()
		}

		// refresh the timer AFTER accepting a new job
		refreshTimer()

		next(ctx, conn)

		// refresh the timer after finishing the job
		refreshTimer()
	}
}

// gatewayHandler runs one request per connection through g
func gatewayHandler(g *gateway) connHandler {
	return func(ctx context.Context, conn net.Conn) {
		defer conn.Close()
		amb := ambientFromAddr(conn.LocalAddr())
		if err := g.serve(ctx, conn, conn, amb); err != nil {
			slog.Warn("request failed", "remote", conn.RemoteAddr().String(), "error", err)
		}
	}
}

// acceptLoop hands every accepted connection to h until the listener fails
func acceptLoop(ctx context.Context, l net.Listener, h connHandler) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		go h(ctx, conn)
	}
}

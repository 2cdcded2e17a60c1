// Package goroutine runs fire-and-forget work, such as event publishing, with
// a concurrency cap and panic recovery, and lets shutdown drain it.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// Manager runs functions in goroutines with a configurable concurrency limit.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	timeout time.Duration
	stateMu sync.RWMutex
	closed  bool
}

// Option customizes a Manager.
type Option func(*Manager)

// WithTimeout bounds each task's context.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// NewManager creates a Manager allowing at most maxGoroutine concurrent tasks.
func NewManager(maxGoroutine int, opts ...Option) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	m := &Manager{sema: make(chan struct{}, maxGoroutine)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Go schedules f and reports whether it was accepted. The task context keeps
// the values of pCtx (correlation id, span) but not its cancellation, so work
// started by a request survives the response being written.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed {
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping task")
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(pCtx, "goroutine limit reached, skipping task")
		return false
	}

	ctx := context.WithoutCancel(pCtx)
	cancel := context.CancelFunc(func() {})
	if g.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
	}

	g.wg.Go(func() {
		defer func() {
			cancel()
			<-g.sema

			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", stacktrace.Describe(debug.Stack()))
			}
		}()

		if err := f(ctx); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	})
	return true
}

// Wait stops accepting tasks, blocks until running ones finish and returns
// their joined errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

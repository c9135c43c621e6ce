// Package goroutine runs the long-lived background jobs of the service
// (consumers, sweepers) under one bounded manager that the shutdown path can
// wait on.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/fintrack/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrLimitReached is returned by Go when every slot is taken.
var ErrLimitReached = errors.New("goroutine: limit reached")

// ErrStopped is returned by Go after Wait was called.
var ErrStopped = errors.New("goroutine: manager stopped")

// Manager runs named jobs with a concurrency cap and collects their errors.
// A job that ends because its context was cancelled is not an error.
type Manager struct {
	wg    sync.WaitGroup
	slots chan struct{}

	mu      sync.Mutex
	errs    []error
	stopped bool
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}
	return &Manager{slots: make(chan struct{}, maxGoroutine)}
}

// Go starts job in its own goroutine. name labels logs and collected errors.
func (m *Manager) Go(ctx context.Context, name string, job func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		slog.WarnContext(ctx, "background job rejected", "job", name, "error", ErrStopped)
		return ErrStopped
	}

	select {
	case m.slots <- struct{}{}:
	default:
		slog.WarnContext(ctx, "background job rejected", "job", name, "error", ErrLimitReached)
		return ErrLimitReached
	}

	m.wg.Go(func() {
		defer func() { <-m.slots }()
		if err := m.run(ctx, name, job); err != nil {
			m.mu.Lock()
			m.errs = append(m.errs, err)
			m.mu.Unlock()
		}
	})
	return nil
}

func (m *Manager) run(ctx context.Context, name string, job func(ctx context.Context) error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "background job panicked", "job", name, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "background job panicked", "job", name, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("%s: panic: %v", name, rvr)
	}()

	if ctx.Err() != nil {
		return nil
	}

	err = job(ctx)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}

	slog.ErrorContext(ctx, "background job failed", "job", name, "error", err)
	return fmt.Errorf("%s: %w", name, err)
}

// Wait stops accepting jobs, blocks until running ones return and reports
// their errors.
func (m *Manager) Wait() error {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}

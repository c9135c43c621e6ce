package pgxcasbin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/casbin/casbin/v3/persist"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// DefaultChannel is the NOTIFY channel used when none is configured.
const DefaultChannel = "identity_casbin_policy"

// Watcher tells the other service instances that the policy changed so they
// reload it. The notification payload is the id of the sender, which ignores
// its own notifications.
type Watcher struct {
	pool    *pgxpool.Pool
	channel string
	id      string

	mu       sync.RWMutex
	callback func(string)

	cancel context.CancelFunc
	done   chan struct{}
}

var _ persist.Watcher = (*Watcher)(nil)

// NewWatcher starts listening on channel until Close. A lost connection is
// re-established with capped fibonacci backoff.
func NewWatcher(ctx context.Context, pool *pgxpool.Pool, channel string) (*Watcher, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pgxcasbin: ping: %w", err)
	}
	if channel == "" {
		channel = DefaultChannel
	}

	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w := &Watcher{
		pool:    pool,
		channel: channel,
		id:      uuid.NewString(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.run(lctx)

	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	backoff := retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(200*time.Millisecond))
	_ = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := w.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		slog.WarnContext(ctx, "policy watcher disconnected, retrying", "channel", w.channel, "error", err)
		return retry.RetryableError(err)
	})
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if !conn.Conn().IsClosed() {
			_, _ = conn.Exec(context.Background(), "UNLISTEN *")
		}
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{w.channel}.Sanitize()); err != nil {
		return err
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Payload == w.id {
			continue
		}

		w.mu.RLock()
		cb := w.callback
		w.mu.RUnlock()
		if cb != nil {
			cb(n.Payload)
		}
	}
}

func (w *Watcher) SetUpdateCallback(cb func(string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = cb
	return nil
}

// Update notifies the other instances. casbin calls it after every policy
// change when auto notify is on.
func (w *Watcher) Update() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := w.pool.Exec(ctx, "SELECT pg_notify($1, $2)", w.channel, w.id); err != nil {
		return fmt.Errorf("pgxcasbin: notify: %w", err)
	}
	return nil
}

// Close stops listening and waits for the listener to exit.
func (w *Watcher) Close() {
	w.cancel()
	<-w.done
}

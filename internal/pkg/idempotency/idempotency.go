// Package idempotency guards side effects behind a client supplied key so a
// retried request runs them at most once while the key's state is retained.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrAlreadyFailed     = errors.New("idempotency: operation already failed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

type State string

const (
	StateNone       State = ""
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Err maps a stored state to the error Exec reports for it.
func (s State) Err() error {
	switch s {
	case StateNone:
		return nil
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	default:
		return ErrInvalidState
	}
}

type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const (
	keyPrefix           = "idempotency:"
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

// claimScript returns the stored state, or takes the key and returns "".
var claimScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur then
	return cur
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return ""
`)

// settleScript records the outcome only while the claim is still held, so a
// worker whose lock expired cannot overwrite a newer claim.
var settleScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur and cur ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

type Redis struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long an unfinished claim blocks retries.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) {
		if d > 0 {
			o.lockDuration = d
		}
	}
}

// WithStateTTL sets how long the final state is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) {
		if d > 0 {
			o.stateTTL = d
		}
	}
}

// State reports what is currently stored under key.
func (r *Redis) State(ctx context.Context, key string) (State, error) {
	v, err := r.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return StateNone, nil
	}
	if err != nil {
		return StateNone, err
	}
	return State(v), nil
}

// Exec runs fn once per key. A repeated key returns the error matching the
// stored state; the outcome of fn is remembered for the state TTL.
func (r *Redis) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}

	fk := keyPrefix + key
	cur, err := claimScript.Run(ctx, r.client, []string{fk},
		string(StateInProgress), o.lockDuration.Milliseconds()).Text()
	if err != nil {
		return err
	}
	if err := State(cur).Err(); err != nil {
		return err
	}

	runErr := fn(ctx)

	final := StateCompleted
	if runErr != nil {
		final = StateFailed
	}
	// the claim is settled even when the caller's context is already done
	settleCtx := context.WithoutCancel(ctx)
	if err := settleScript.Run(settleCtx, r.client, []string{fk},
		string(StateInProgress), string(final), o.stateTTL.Milliseconds()).Err(); err != nil {
		return errors.Join(runErr, err)
	}

	return runErr
}

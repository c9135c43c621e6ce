package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/fintrack/internal/pkg/stacktrace"
)

// dispatch runs h and turns a panic into an error so the delivery is retried
// instead of taking the consumer down.
func dispatch(ctx context.Context, driver string, h Handler, d Delivery) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		attrs := []any{"driver", driver, "topic", d.Topic, "message_id", d.ID, "panic", rvr}
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			attrs = append(attrs, "stack", paths)
		} else {
			attrs = append(attrs, "stack", string(stack))
		}
		slog.ErrorContext(ctx, "panic while handling message", attrs...)

		err = fmt.Errorf("messaging: %s handler panicked: %v", driver, rvr)
	}()

	return h(ctx, d)
}

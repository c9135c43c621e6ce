package inbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/fintrack/internal/pkg/goroutine"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
)

const defaultSweepInterval = time.Minute

type sweeper interface {
	SweepPasscodes(ctx context.Context) (int64, error)
}

// RegisterPasscodeSweeper deletes expired and consumed passcodes on a fixed
// interval until ctx is cancelled.
func RegisterPasscodeSweeper(ctx context.Context, routine *goroutine.Manager, uuid uid.StringID, interval time.Duration, uc sweeper) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	_ = routine.Go(ctx, "passcode_sweeper", func(pCtx context.Context) error {
		slog.InfoContext(pCtx, "starting passcode sweeper", "interval", interval.String())

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-pCtx.Done():
				return nil
			case <-ticker.C:
				sweepOnce(pCtx, uuid, uc)
			}
		}
	})
}

func sweepOnce(ctx context.Context, uuid uid.StringID, uc sweeper) {
	ctx = instrument.SetCorrelationID(ctx, uuid.Generate())

	n, err := uc.SweepPasscodes(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sweep passcodes", "error", err)
		return
	}

	if n > 0 {
		slog.InfoContext(ctx, "swept passcodes", "deleted", n)
	}
}

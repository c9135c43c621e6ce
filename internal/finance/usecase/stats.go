package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type StatsOutput struct {
	entity.TransactionStats
	// ActiveDays counts days from the first transaction to today, inclusive.
	ActiveDays int64
}

func (s *Usecase) Stats(ctx context.Context) (*StatsOutput, error) {
	ctx, span := s.startSpan(ctx, "Stats")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	st, err := s.repoDB.GetTransactionStats(ctx, clm.UserID, startOfMonth(today))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get transaction stats", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &StatsOutput{TransactionStats: *st}
	if st.FirstDate != nil && !st.FirstDate.After(today) {
		out.ActiveDays = int64(today.Sub(truncateDay(*st.FirstDate)).Hours()/24) + 1
	}

	return out, nil
}

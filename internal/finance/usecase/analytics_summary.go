package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

const recentTransactionsLimit int32 = 5

type SummaryInput struct {
	Period   string
	DateFrom time.Time // inclusive, custom period only
	DateTo   time.Time // inclusive, custom period only
}

type SummaryOutput struct {
	Period     entity.Period
	From       time.Time
	To         time.Time
	Totals     entity.Totals
	AvgIncome  float64
	AvgExpense float64
	Recent     []entity.Transaction
}

func (s *Usecase) Summary(ctx context.Context, in SummaryInput) (*SummaryOutput, error) {
	ctx, span := s.startSpan(ctx, "Summary")
	defer span.End()

	period, ok := entity.ParsePeriod(in.Period)
	if !ok {
		return nil, goerror.NewInvalidInput(nil, "period", "period must be one of today, week, month, year, all, custom")
	}

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	w, err := periodWindow(period, s.today(), in.DateFrom, in.DateTo)
	if err != nil {
		return nil, err
	}

	totals, err := s.repoDB.SumTransactions(ctx, entity.TransactionFilter{
		UserID:   clm.UserID,
		DateFrom: w.From,
		DateTo:   w.To,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo sum transactions", "user_id", clm.UserID, "period", period, "error", err)
		return nil, goerror.NewServer(err)
	}

	recent, err := s.repoDB.RecentTransactions(ctx, clm.UserID, recentTransactionsLimit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get recent transactions", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &SummaryOutput{
		Period: period,
		From:   w.From,
		To:     w.To,
		Totals: *totals,
		Recent: recent,
	}
	if totals.IncomeCount > 0 {
		out.AvgIncome = entity.Round2(totals.Income.Float() / float64(totals.IncomeCount))
	}
	if totals.ExpenseCount > 0 {
		out.AvgExpense = entity.Round2(totals.Expense.Float() / float64(totals.ExpenseCount))
	}

	return out, nil
}

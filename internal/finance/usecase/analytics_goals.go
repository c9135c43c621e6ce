package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

const defaultSavingsTarget = 20.0

type GoalsInput struct {
	// TargetRate is the wanted savings rate in percent; zero uses the configured default.
	TargetRate float64
}

type GoalsOutput struct {
	Totals        entity.Totals
	SavingsRate   float64
	TargetRate    float64
	TargetSavings entity.Amount
	Shortfall     entity.Amount
	OnTrack       bool
}

// Goals compares this month's savings rate with a target rate.
func (s *Usecase) Goals(ctx context.Context, in GoalsInput) (*GoalsOutput, error) {
	ctx, span := s.startSpan(ctx, "Goals")
	defer span.End()

	if in.TargetRate < 0 || in.TargetRate > 100 {
		return nil, goerror.NewInvalidInput(nil, "target_rate", "target_rate must be between 0 and 100")
	}
	if in.TargetRate == 0 {
		in.TargetRate = s.cfg.GetFloat64("modules.finance.savings_target_percent")
	}
	if in.TargetRate <= 0 || in.TargetRate > 100 {
		in.TargetRate = defaultSavingsTarget
	}

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	w, _ := periodWindow(entity.PeriodMonth, s.today(), time.Time{}, time.Time{})
	totals, err := s.repoDB.SumTransactions(ctx, entity.TransactionFilter{
		UserID:   clm.UserID,
		DateFrom: w.From,
		DateTo:   w.To,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo sum transactions", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	target, _ := entity.ParseAmount(entity.Round2(totals.Income.Float() * in.TargetRate / 100))
	out := &GoalsOutput{
		Totals:        *totals,
		SavingsRate:   totals.SavingsRate(),
		TargetRate:    in.TargetRate,
		TargetSavings: target,
	}
	if net := totals.Net(); net < target {
		out.Shortfall = target - net
	}
	out.OnTrack = totals.Income > 0 && out.SavingsRate >= in.TargetRate

	return out, nil
}

package usecase

import (
	"context"
	"fmt"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

const (
	defaultComparisonMonths int32 = 6
	maxComparisonMonths     int32 = 24
)

type MonthlyComparisonInput struct {
	Months int32
}

type MonthComparison struct {
	TrendPoint
	// ExpenseChange is the percent change of expense against the previous
	// month, nil when the previous month had no expense.
	ExpenseChange *float64
	SavingsRate   float64
}

type MonthlyComparisonOutput struct {
	Months []MonthComparison
}

func (s *Usecase) MonthlyComparison(ctx context.Context, in MonthlyComparisonInput) (*MonthlyComparisonOutput, error) {
	ctx, span := s.startSpan(ctx, "MonthlyComparison")
	defer span.End()

	if in.Months == 0 {
		in.Months = defaultComparisonMonths
	}
	if in.Months < 1 || in.Months > maxComparisonMonths {
		return nil, goerror.NewInvalidInput(nil, "months", fmt.Sprintf("months must be between 1 and %d", maxComparisonMonths))
	}

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	points, err := s.bucketSeries(ctx, clm.UserID, entity.GranularityMonth,
		bucketWindow(entity.GranularityMonth, s.today(), in.Months))
	if err != nil {
		return nil, err
	}

	out := &MonthlyComparisonOutput{Months: make([]MonthComparison, 0, len(points))}
	for i, p := range points {
		m := MonthComparison{
			TrendPoint:  p,
			SavingsRate: entity.Totals{Income: p.Income, Expense: p.Expense}.SavingsRate(),
		}
		if i > 0 && points[i-1].Expense > 0 {
			change := entity.Round2(float64(p.Expense-points[i-1].Expense) / float64(points[i-1].Expense) * 100)
			m.ExpenseChange = &change
		}
		out.Months = append(out.Months, m)
	}

	return out, nil
}

package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type CategoryBreakdownInput struct {
	Type     string // defaults to expense
	Period   string
	DateFrom time.Time
	DateTo   time.Time
}

type CategoryShare struct {
	Category   entity.Category
	Total      entity.Amount
	Count      int64
	Average    float64
	Percentage float64
}

type CategoryBreakdownOutput struct {
	Type       entity.TransactionType
	Period     entity.Period
	Total      entity.Amount
	Categories []CategoryShare
}

func (s *Usecase) CategoryBreakdown(ctx context.Context, in CategoryBreakdownInput) (*CategoryBreakdownOutput, error) {
	ctx, span := s.startSpan(ctx, "CategoryBreakdown")
	defer span.End()

	typ := entity.TransactionTypeExpense
	if in.Type != "" {
		typ = entity.ParseTransactionType(in.Type)
		if typ.IsUnknown() {
			return nil, goerror.NewInvalidInput(nil, "type", "type must be income or expense")
		}
	}

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

	rows, err := s.repoDB.SumByCategory(ctx, entity.TransactionFilter{
		UserID:   clm.UserID,
		Type:     typ,
		DateFrom: w.From,
		DateTo:   w.To,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo sum transactions by category", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &CategoryBreakdownOutput{Type: typ, Period: period}
	for _, r := range rows {
		out.Total += r.Total
	}

	out.Categories = make([]CategoryShare, 0, len(rows))
	for _, r := range rows {
		share := CategoryShare{Category: r.Category, Total: r.Total, Count: r.Count}
		if r.Count > 0 {
			share.Average = entity.Round2(r.Total.Float() / float64(r.Count))
		}
		if out.Total > 0 {
			share.Percentage = entity.Round2(float64(r.Total) / float64(out.Total) * 100)
		}
		out.Categories = append(out.Categories, share)
	}

	sort.SliceStable(out.Categories, func(i, j int) bool {
		if out.Categories[i].Total != out.Categories[j].Total {
			return out.Categories[i].Total > out.Categories[j].Total
		}
		return out.Categories[i].Category < out.Categories[j].Category
	})

	return out, nil
}

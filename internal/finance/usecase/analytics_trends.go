package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

//nolint:gochecknoglobals // per-granularity defaults and caps
var trendPoints = map[entity.Granularity]struct{ def, max int32 }{
	entity.GranularityDay:   {def: 30, max: 366},
	entity.GranularityWeek:  {def: 12, max: 104},
	entity.GranularityMonth: {def: 6, max: 24},
}

type TrendsInput struct {
	Granularity string
	// Points is the number of buckets ending with the current one.
	Points int32
}

type TrendPoint struct {
	Start   time.Time
	Income  entity.Amount
	Expense entity.Amount
	Count   int64
}

func (p TrendPoint) Net() entity.Amount { return p.Income - p.Expense }

type TrendsOutput struct {
	Granularity entity.Granularity
	Points      []TrendPoint
}

func (s *Usecase) Trends(ctx context.Context, in TrendsInput) (*TrendsOutput, error) {
	ctx, span := s.startSpan(ctx, "Trends")
	defer span.End()

	g, ok := entity.ParseGranularity(in.Granularity)
	if !ok {
		return nil, goerror.NewInvalidInput(nil, "granularity", "granularity must be one of day, week, month")
	}

	limits := trendPoints[g]
	if in.Points == 0 {
		in.Points = limits.def
	}
	if in.Points < 1 || in.Points > limits.max {
		return nil, goerror.NewInvalidInput(nil, "points", fmt.Sprintf("points must be between 1 and %d", limits.max))
	}

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	points, err := s.bucketSeries(ctx, clm.UserID, g, bucketWindow(g, s.today(), in.Points))
	if err != nil {
		return nil, err
	}

	return &TrendsOutput{Granularity: g, Points: points}, nil
}

// bucketSeries returns one point per bucket in w, zero-filled where the
// user has no transactions.
func (s *Usecase) bucketSeries(ctx context.Context, userID int64, g entity.Granularity, w window) ([]TrendPoint, error) {
	rows, err := s.repoDB.SumByBucket(ctx, userID, g, w.From, w.To)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo sum transactions by bucket", "user_id", userID, "granularity", g, "error", err)
		return nil, goerror.NewServer(err)
	}

	byStart := make(map[int64]*TrendPoint, len(rows))
	var points []TrendPoint
	for start := w.From; start.Before(w.To); start = nextBucket(g, start) {
		points = append(points, TrendPoint{Start: start})
	}
	for i := range points {
		byStart[points[i].Start.Unix()] = &points[i]
	}

	for _, r := range rows {
		p, ok := byStart[bucketStart(g, r.Start).Unix()]
		if !ok {
			continue
		}
		switch r.Type {
		case entity.TransactionTypeIncome:
			p.Income += r.Total
		case entity.TransactionTypeExpense:
			p.Expense += r.Total
		}
		p.Count += r.Count
	}

	return points, nil
}

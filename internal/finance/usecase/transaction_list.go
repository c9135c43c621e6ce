package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

const (
	defaultTransactionPageSize int32 = 50
	maxTransactionPageSize     int32 = 100
)

//nolint:gochecknoglobals // allow-list of sortable columns
var transactionSortColumns = map[string]struct{}{
	"date":       {},
	"amount":     {},
	"category":   {},
	"created_at": {},
}

type TransactionListInput struct {
	Type      string
	Category  string
	DateFrom  time.Time // inclusive day
	DateTo    time.Time // inclusive day
	Month     int32     // used with Year when no date range is given
	Year      int32
	Search    string
	SortBy    string
	SortOrder string
	Page      int32
	Size      int32
}

type TransactionListOutput struct {
	Items      []entity.Transaction
	Page       int32
	Size       int32
	Total      int64
	TotalPages int64
	Summary    entity.Totals
}

func (o TransactionListOutput) HasNext() bool { return int64(o.Page) < o.TotalPages }

func (o TransactionListOutput) HasPrev() bool { return o.Page > 1 }

func (s *Usecase) buildFilter(userID int64, in TransactionListInput) (entity.TransactionFilter, error) {
	f := entity.TransactionFilter{
		UserID:         userID,
		Search:         strings.TrimSpace(in.Search),
		OrderBy:        strings.ToLower(strings.TrimSpace(in.SortBy)),
		OrderDirection: strings.ToLower(strings.TrimSpace(in.SortOrder)),
	}

	if in.Type != "" {
		f.Type = entity.ParseTransactionType(in.Type)
		if f.Type.IsUnknown() {
			return f, goerror.NewInvalidInput(nil, "type", "type must be income or expense")
		}
	}

	if in.Category != "" {
		c, ok := entity.ParseCategory(in.Category)
		if !ok {
			return f, goerror.NewInvalidInput(nil, "category", "category is not supported")
		}
		f.Category = c
	}

	if _, ok := transactionSortColumns[f.OrderBy]; !ok {
		f.OrderBy = "date"
	}
	if f.OrderDirection != "asc" {
		f.OrderDirection = "desc"
	}

	var (
		w   window
		err error
	)
	switch {
	case !in.DateFrom.IsZero() || !in.DateTo.IsZero():
		w, err = dayRange(in.DateFrom, in.DateTo)
	case in.Year != 0:
		w, err = monthYearWindow(in.Year, in.Month)
	case in.Month != 0:
		w, err = monthYearWindow(int32(s.today().Year()), in.Month)
	}
	if err != nil {
		return f, err
	}
	f.DateFrom, f.DateTo = w.From, w.To

	return f, nil
}

func (s *Usecase) TransactionList(ctx context.Context, in TransactionListInput) (*TransactionListOutput, error) {
	ctx, span := s.startSpan(ctx, "TransactionList")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	f, err := s.buildFilter(clm.UserID, in)
	if err != nil {
		return nil, err
	}

	if in.Size <= 0 || in.Size > maxTransactionPageSize {
		in.Size = defaultTransactionPageSize
	}
	page := max(in.Page, 1)
	f.Size = in.Size
	f.Offset = (page - 1) * in.Size

	items, total, err := s.repoDB.ListTransactions(ctx, f)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list transactions", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	summary, err := s.repoDB.SumTransactions(ctx, f)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo sum transactions", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TransactionListOutput{
		Items:      items,
		Page:       page,
		Size:       in.Size,
		Total:      total,
		TotalPages: (total + int64(in.Size) - 1) / int64(in.Size),
		Summary:    *summary,
	}, nil
}

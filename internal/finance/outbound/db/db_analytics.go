package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/fintrack/internal/finance/entity"
)

func (s *DB) SumTransactions(ctx context.Context, f entity.TransactionFilter) (_ *entity.Totals, err error) {
	ctx, span := s.startSpan(ctx, "SumTransactions")
	defer func() { s.endSpan(span, err) }()

	where, args := whereClause(f)

	var t entity.Totals
	err = s.conn.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount_minor) FILTER (WHERE type = 1), 0)::bigint,
			COALESCE(SUM(amount_minor) FILTER (WHERE type = 2), 0)::bigint,
			COUNT(*) FILTER (WHERE type = 1),
			COUNT(*) FILTER (WHERE type = 2)
		FROM finance_transactions `+where, args...).
		Scan(&t.Income, &t.Expense, &t.IncomeCount, &t.ExpenseCount)
	if err != nil {
		return nil, mapError(err)
	}

	return &t, nil
}

func (s *DB) SumByCategory(ctx context.Context, f entity.TransactionFilter) (_ []entity.CategoryTotal, err error) {
	ctx, span := s.startSpan(ctx, "SumByCategory")
	defer func() { s.endSpan(span, err) }()

	where, args := whereClause(f)

	rows, err := s.conn.Query(ctx, `
		SELECT category, COALESCE(SUM(amount_minor), 0)::bigint, COUNT(*)
		FROM finance_transactions `+where+`
		GROUP BY category
		ORDER BY 2 DESC, category`, args...)
	if err != nil {
		return nil, mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.CategoryTotal, error) {
		var c entity.CategoryTotal
		err := row.Scan(&c.Category, &c.Total, &c.Count)
		return c, err
	})
	return items, mapError(err)
}

func (s *DB) SumByBucket(ctx context.Context, userID int64, g entity.Granularity, from, to time.Time) (_ []entity.BucketTotal, err error) {
	ctx, span := s.startSpan(ctx, "SumByBucket")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT date_trunc($2::text, date::timestamp)::date AS bucket, type,
			COALESCE(SUM(amount_minor), 0)::bigint, COUNT(*)
		FROM finance_transactions
		WHERE user_id = $1 AND date >= $3 AND date < $4
		GROUP BY bucket, type
		ORDER BY bucket, type`, userID, string(g), from, to)
	if err != nil {
		return nil, mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.BucketTotal, error) {
		var b entity.BucketTotal
		err := row.Scan(&b.Start, &b.Type, &b.Total, &b.Count)
		return b, err
	})
	return items, mapError(err)
}

func (s *DB) GetTransactionStats(ctx context.Context, userID int64, monthStart time.Time) (_ *entity.TransactionStats, err error) {
	ctx, span := s.startSpan(ctx, "GetTransactionStats")
	defer func() { s.endSpan(span, err) }()

	var st entity.TransactionStats
	err = s.conn.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount_minor) FILTER (WHERE type = 1), 0)::bigint,
			COALESCE(SUM(amount_minor) FILTER (WHERE type = 2), 0)::bigint,
			COUNT(*) FILTER (WHERE type = 1),
			COUNT(*) FILTER (WHERE type = 2),
			COUNT(*) FILTER (WHERE date >= $2),
			COUNT(DISTINCT category),
			MIN(date),
			MAX(date)
		FROM finance_transactions
		WHERE user_id = $1`, userID, monthStart).
		Scan(&st.Totals.Income, &st.Totals.Expense, &st.Totals.IncomeCount, &st.Totals.ExpenseCount,
			&st.ThisMonthCount, &st.CategoriesUsed, &st.FirstDate, &st.LastDate)
	if err != nil {
		return nil, mapError(err)
	}

	return &st, nil
}

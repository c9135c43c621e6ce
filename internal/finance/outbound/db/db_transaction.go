package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

const transactionColumns = `id, user_id, type, amount_minor, category, description, date, tags, notes,
	is_recurring, recurring_frequency, created_at, updated_at`

func scanTransaction(row pgx.Row) (entity.Transaction, error) {
	var t entity.Transaction
	err := row.Scan(
		&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Category, &t.Description, &t.Date, &t.Tags, &t.Notes,
		&t.IsRecurring, &t.RecurringFrequency, &t.CreatedAt, &t.UpdatedAt,
	)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, err
}

func (s *DB) ListTransactions(ctx context.Context, f entity.TransactionFilter) (_ []entity.Transaction, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListTransactions")
	defer func() { s.endSpan(span, err) }()

	where, args := whereClause(f)

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM finance_transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	args = append(args, f.Size, f.Offset)
	rows, err := s.conn.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM finance_transactions `+where+`
		`+orderClause(f)+`
		LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	items := make([]entity.Transaction, 0, f.Size)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, mapError(err)
		}
		items = append(items, t)
	}

	return items, total, mapError(rows.Err())
}

func (s *DB) GetTransaction(ctx context.Context, userID, id int64) (_ *entity.Transaction, err error) {
	ctx, span := s.startSpan(ctx, "GetTransaction")
	defer func() { s.endSpan(span, err) }()

	t, err := scanTransaction(s.conn.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM finance_transactions
		WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, mapError(err)
	}

	return &t, nil
}

func (s *DB) RecentTransactions(ctx context.Context, userID int64, limit int32) (_ []entity.Transaction, err error) {
	ctx, span := s.startSpan(ctx, "RecentTransactions")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM finance_transactions
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Transaction, error) {
		return scanTransaction(row)
	})
	return items, mapError(err)
}

// CreateTransactions inserts all rows atomically; more than one row goes
// through COPY.
func (s *DB) CreateTransactions(ctx context.Context, txs []entity.Transaction) (err error) {
	ctx, span := s.startSpan(ctx, "CreateTransactions")
	defer func() { s.endSpan(span, err) }()

	if len(txs) == 1 {
		t := txs[0]
		_, err = s.conn.Exec(ctx, `
			INSERT INTO finance_transactions (`+transactionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			t.ID, t.UserID, int16(t.Type), int64(t.Amount), string(t.Category), t.Description, t.Date, nonNilTags(t.Tags), t.Notes,
			t.IsRecurring, int16(t.RecurringFrequency), t.CreatedAt, t.UpdatedAt)
		return mapError(err)
	}

	_, err = s.conn.CopyFrom(ctx,
		pgx.Identifier{"finance_transactions"},
		[]string{
			"id", "user_id", "type", "amount_minor", "category", "description", "date", "tags", "notes",
			"is_recurring", "recurring_frequency", "created_at", "updated_at",
		},
		pgx.CopyFromSlice(len(txs), func(i int) ([]any, error) {
			t := txs[i]
			return []any{
				t.ID, t.UserID, int16(t.Type), int64(t.Amount), string(t.Category), t.Description, t.Date, nonNilTags(t.Tags), t.Notes,
				t.IsRecurring, int16(t.RecurringFrequency), t.CreatedAt, t.UpdatedAt,
			}, nil
		}),
	)
	return mapError(err)
}

func (s *DB) UpdateTransaction(ctx context.Context, in entity.UpdateTransaction) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateTransaction")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE finance_transactions
		SET type = $3, amount_minor = $4, category = $5, description = $6, date = $7, tags = $8,
			notes = $9, is_recurring = $10, recurring_frequency = $11, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`,
		in.ID, in.UserID, int16(in.Type), int64(in.Amount), string(in.Category), in.Description, in.Date, nonNilTags(in.Tags),
		in.Notes, in.IsRecurring, int16(in.RecurringFrequency))
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) DeleteTransactions(ctx context.Context, userID int64, ids []int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteTransactions")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		DELETE FROM finance_transactions
		WHERE user_id = $1 AND id = ANY($2)`, userID, ids)
	if err != nil {
		return 0, mapError(err)
	}

	return tag.RowsAffected(), nil
}

func (s *DB) PurgeUserTransactions(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "PurgeUserTransactions")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM finance_transactions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, mapError(err)
	}

	return tag.RowsAffected(), nil
}

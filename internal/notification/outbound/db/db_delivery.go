package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/fintrack/internal/notification/entity"
)

func (s *DB) GetTemplate(ctx context.Context, tk entity.TriggerKey, ch entity.Channel) (*entity.Template, error) {
	ctx, done := s.trace(ctx, "GetTemplate", 0)

	var t entity.Template
	err := s.conn.QueryRow(ctx, `
		SELECT id, trigger_key, channel, subject, body
		FROM notification_templates
		WHERE trigger_key = $1 AND channel = $2`, tk, ch).
		Scan(&t.ID, &t.TriggerKey, &t.Channel, &t.Subject, &t.Body)
	if err := done(err); err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateNotification stores the inbox entry and its queued delivery in one
// transaction and returns the delivery id.
func (s *DB) CreateNotification(ctx context.Context, n entity.Notification, ch entity.Channel) (int64, error) {
	ctx, done := s.trace(ctx, "CreateNotification", n.UserID)

	var deliveryID int64
	err := pgx.BeginTxFunc(ctx, s.conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO notification_inbox (id, user_id, trigger_key, data, metadata)
			VALUES ($1, $2, $3, $4, $5)`,
			n.ID, n.UserID, n.TriggerKey, n.Data, n.Metadata,
		); err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
			INSERT INTO notification_delivery_logs (notification_id, channel, status)
			VALUES ($1, $2, $3)
			RETURNING id`, n.ID, ch, entity.DeliveryStatusQueued,
		).Scan(&deliveryID)
	})

	return deliveryID, done(err)
}

// FinishDelivery records the outcome once; a delivery that already reached a
// final status is left untouched and reported as not found.
func (s *DB) FinishDelivery(ctx context.Context, d entity.Delivery) error {
	ctx, done := s.trace(ctx, "FinishDelivery", 0)

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_delivery_logs
		SET status = $2, attempts = $3, provider_response = $4, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ($5, $6)`,
		d.ID, d.Status, d.Attempts, d.ProviderResponse,
		entity.DeliveryStatusSent, entity.DeliveryStatusFailed)
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}

	return done(err)
}

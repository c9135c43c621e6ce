package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/fintrack/internal/notification/entity"
)

var errUnknownChange = errors.New("unknown inbox change")

const inboxFilterSQL = `
	AND ($2 = 'all' OR ($2 = 'unread' AND read_at IS NULL) OR ($2 = 'read' AND read_at IS NOT NULL))`

// ListInbox reads one page and the unread total in a single round trip. One
// extra row is fetched to know whether another page follows.
func (s *DB) ListInbox(ctx context.Context, q entity.InboxQuery) (*entity.InboxPage, error) {
	ctx, done := s.trace(ctx, "ListInbox", q.UserID)

	batch := &pgx.Batch{}
	batch.Queue(`
		SELECT id, user_id, trigger_key, data, metadata, read_at, created_at
		FROM notification_inbox
		WHERE user_id = $1 AND deleted_at IS NULL`+inboxFilterSQL+`
			AND ($3::BIGINT = 0 OR id < $3::BIGINT)
		ORDER BY id DESC
		LIMIT $4`, q.UserID, string(q.Filter), q.Before, q.Limit+1)
	batch.Queue(`
		SELECT COUNT(*) FROM notification_inbox
		WHERE user_id = $1 AND read_at IS NULL AND deleted_at IS NULL`, q.UserID)

	br := s.conn.SendBatch(ctx, batch)
	page, err := readInboxPage(br, q.Limit)
	if cErr := br.Close(); err == nil {
		err = cErr
	}
	if err := done(err); err != nil {
		return nil, err
	}

	return page, nil
}

func readInboxPage(br pgx.BatchResults, limit int32) (*entity.InboxPage, error) {
	rows, err := br.Query()
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[entity.Notification])
	if err != nil {
		return nil, err
	}

	page := &entity.InboxPage{Items: items}
	if int32(len(items)) > limit {
		page.Items = items[:limit]
		page.NextBefore = page.Items[limit-1].ID
	}

	if err := br.QueryRow().Scan(&page.Unread); err != nil {
		return nil, err
	}

	return page, nil
}

// UpdateInbox applies change to entry id of the user, or to all of the
// user's live entries when id is zero. It returns the affected count.
func (s *DB) UpdateInbox(ctx context.Context, userID, id int64, change entity.InboxChange) (int64, error) {
	ctx, done := s.trace(ctx, "UpdateInbox", userID)

	var set string
	switch change {
	case entity.InboxChangeRead:
		set = "read_at = COALESCE(read_at, NOW())"
	case entity.InboxChangeDelete:
		set = "deleted_at = NOW()"
	default:
		return 0, done(errUnknownChange)
	}

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_inbox SET `+set+`
		WHERE user_id = $1 AND deleted_at IS NULL AND ($2::BIGINT = 0 OR id = $2::BIGINT)`, userID, id)
	if err := done(err); err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// PurgeInbox hard deletes every inbox entry of a user; delivery logs follow
// through the foreign key cascade.
func (s *DB) PurgeInbox(ctx context.Context, userID int64) (int64, error) {
	ctx, done := s.trace(ctx, "PurgeInbox", userID)

	tag, err := s.conn.Exec(ctx, `DELETE FROM notification_inbox WHERE user_id = $1`, userID)
	if err := done(err); err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/fintrack/internal/identity/entity"
)

// UpsertPasscode keeps one row per (identifier, purpose); a new issue
// replaces the code, resets attempts and restarts the window.
func (s *DB) UpsertPasscode(ctx context.Context, p entity.Passcode) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertPasscode")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO identity_passcodes (id, identifier, purpose, code_hash, attempts, created_at, expires_at, consumed_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, NULL)
		ON CONFLICT (identifier, purpose) DO UPDATE
		SET id = EXCLUDED.id,
			previous_code_hash = identity_passcodes.code_hash,
			code_hash = EXCLUDED.code_hash,
			attempts = 0,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			consumed_at = NULL`,
		p.ID, p.Identifier, p.Purpose, p.CodeHash, p.CreatedAt, p.ExpiresAt)
	return mapError(err)
}

func (s *DB) GetPasscode(ctx context.Context, identifier string, purpose entity.PasscodePurpose) (_ *entity.Passcode, err error) {
	ctx, span := s.startSpan(ctx, "GetPasscode")
	defer func() { s.endSpan(span, err) }()

	var p entity.Passcode
	err = s.conn.QueryRow(ctx, `
		SELECT id, identifier, purpose, code_hash, COALESCE(previous_code_hash, ''), attempts, created_at, expires_at, consumed_at
		FROM identity_passcodes
		WHERE identifier = $1 AND purpose = $2`, identifier, purpose).
		Scan(&p.ID, &p.Identifier, &p.Purpose, &p.CodeHash, &p.PreviousCodeHash, &p.Attempts, &p.CreatedAt, &p.ExpiresAt, &p.ConsumedAt)
	if err != nil {
		return nil, mapError(err)
	}

	return &p, nil
}

// IncrementPasscodeAttempts counts a miss only while the record is live and
// under the cap, so concurrent misses can never push it past maxAttempts.
// False means the miss was not counted.
func (s *DB) IncrementPasscodeAttempts(ctx context.Context, id int64, maxAttempts int32) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "IncrementPasscodeAttempts")
	defer func() { s.endSpan(span, err) }()

	var attempts int32
	err = s.conn.QueryRow(ctx, `
		UPDATE identity_passcodes
		SET attempts = attempts + 1
		WHERE id = $1
			AND consumed_at IS NULL
			AND expires_at > NOW()
			AND attempts < $2
		RETURNING attempts`, id, maxAttempts).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}

	return true, nil
}

// ConsumePasscode flags the record consumed only while it is still the same
// live, unconsumed, under-limit row. False means another request won.
func (s *DB) ConsumePasscode(ctx context.Context, in entity.ConsumePasscode) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumePasscode")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.conn.QueryRow(ctx, `
		UPDATE identity_passcodes
		SET consumed_at = NOW()
		WHERE id = $1
			AND code_hash = $2
			AND consumed_at IS NULL
			AND expires_at > NOW()
			AND attempts < $3
		RETURNING id`, in.ID, in.CodeHash, in.MaxAttempts).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}

	return true, nil
}

func (s *DB) DeletePasscode(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeletePasscode")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM identity_passcodes WHERE id = $1`, id)
	return mapError(err)
}

func (s *DB) DeleteExpiredPasscodes(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredPasscodes")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		DELETE FROM identity_passcodes
		WHERE expires_at <= $1 OR consumed_at IS NOT NULL`, now)
	if err != nil {
		return 0, mapError(err)
	}

	return tag.RowsAffected(), nil
}

package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
)

const userColumns = `id, email, full_name, avatar_url, phone, status, preferences, last_login_at, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.AvatarURL, &u.Phone, &u.Status,
		&u.Preferences, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	); err != nil {
		return nil, err
	}

	if u.Preferences == nil {
		u.Preferences = valueobject.JSONMap{}
	}

	return &u, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string, includeDeleted bool) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM identity_users
		WHERE email = $1 AND ($2 OR deleted_at IS NULL)`, email, includeDeleted))
	if err != nil {
		return nil, mapError(err)
	}

	return u, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64, includeDeleted bool) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM identity_users
		WHERE id = $1 AND ($2 OR deleted_at IS NULL)`, id, includeDeleted))
	if err != nil {
		return nil, mapError(err)
	}

	return u, nil
}

const credentialInfoQuery = `
	SELECT u.id, u.email, u.full_name, u.status, c.password, COALESCE(u.preferences->>'language', '')
	FROM identity_users u
	JOIN identity_user_credentials c ON c.user_id = u.id
	WHERE u.deleted_at IS NULL AND `

func (s *DB) GetUserCredentialInfo(ctx context.Context, email string) (_ *entity.UserCredentialInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserCredentialInfo")
	defer func() { s.endSpan(span, err) }()

	var r entity.UserCredentialInfo
	err = s.conn.QueryRow(ctx, credentialInfoQuery+`u.email = $1`, email).
		Scan(&r.ID, &r.Email, &r.FullName, &r.Status, &r.Password, &r.Language)
	if err != nil {
		return nil, mapError(err)
	}

	return &r, nil
}

func (s *DB) GetUserCredentialInfoByID(ctx context.Context, id int64) (_ *entity.UserCredentialInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserCredentialInfoByID")
	defer func() { s.endSpan(span, err) }()

	var r entity.UserCredentialInfo
	err = s.conn.QueryRow(ctx, credentialInfoQuery+`u.id = $1`, id).
		Scan(&r.ID, &r.Email, &r.FullName, &r.Status, &r.Password, &r.Language)
	if err != nil {
		return nil, mapError(err)
	}

	return &r, nil
}

func (s *DB) NewRegistration(ctx context.Context, user entity.NewUser, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "NewRegistration")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, `
		INSERT INTO identity_users (id, email, full_name, avatar_url, phone, status, preferences, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.FullName, user.AvatarURL, user.Phone, user.Status,
		user.Preferences, user.CreatedBy, user.UpdatedBy,
	); err != nil {
		return mapError(err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO identity_user_credentials (user_id, password)
		VALUES ($1, $2)`, user.ID, hash,
	); err != nil {
		return mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return mapError(err)
	}

	return nil
}

// ActivateUser only moves the account when it is still in OldStatus.
func (s *DB) ActivateUser(ctx context.Context, in entity.ActivateUser) (err error) {
	ctx, span := s.startSpan(ctx, "ActivateUser")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE identity_users
		SET status = $3, updated_at = NOW(), updated_by = $1
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL`,
		in.UserID, in.OldStatus, in.NewStatus)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserLastLogin")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `UPDATE identity_users SET last_login_at = $2 WHERE id = $1`, id, at)
	return mapError(err)
}

func (s *DB) UpdateUserProfile(ctx context.Context, id int64, fullName, phone string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserProfile")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE identity_users
		SET full_name = $2, phone = $3, updated_at = NOW(), updated_by = $1
		WHERE id = $1 AND deleted_at IS NULL`, id, fullName, phone)
	return mapError(err)
}

func (s *DB) UpdateUserPreferences(ctx context.Context, id int64, prefs valueobject.JSONMap) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserPreferences")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE identity_users
		SET preferences = $2, updated_at = NOW(), updated_by = $1
		WHERE id = $1 AND deleted_at IS NULL`, id, prefs)
	return mapError(err)
}

func (s *DB) UpdateUserAvatar(ctx context.Context, id int64, avatarURL string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserAvatar")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE identity_users
		SET avatar_url = $2, updated_at = NOW(), updated_by = $1
		WHERE id = $1 AND deleted_at IS NULL`, id, avatarURL)
	return mapError(err)
}

func (s *DB) UpdateUserCredential(ctx context.Context, userID int64, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserCredential")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE identity_user_credentials
		SET password = $2, updated_at = NOW()
		WHERE user_id = $1`, userID, hash)
	return mapError(err)
}

// MarkUserDeleted soft deletes the account; the email stays reserved.
func (s *DB) MarkUserDeleted(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "MarkUserDeleted")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE identity_users
		SET status = $2, deleted_at = NOW(), updated_at = NOW(), updated_by = $1
		WHERE id = $1 AND deleted_at IS NULL`, id, entity.UserStatusInactive)
	return mapError(err)
}

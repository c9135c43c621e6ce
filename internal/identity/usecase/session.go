package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type SessionUser struct {
	ID          int64
	Email       string
	FullName    string
	AvatarURL   string
	LastLoginAt time.Time
}

type SessionOutput struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        SessionUser
}

type IssueSessionInput struct {
	Email string `validate:"required,email"`
}

// IssueSession mints a session for an account whose identity was already
// proven by a passcode.
func (s *Usecase) IssueSession(ctx context.Context, in IssueSessionInput) (*SessionOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueSession")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.issueSession(ctx, in.Email)
}

func (s *Usecase) issueSession(ctx context.Context, email string) (*SessionOutput, error) {
	user, err := s.repoDB.GetUserByEmail(ctx, email, false)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found for session", "email", email)
		return nil, errUnauthorized()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.mintSession(ctx, user)
}

func (s *Usecase) mintSession(ctx context.Context, user *entity.User) (*SessionOutput, error) {
	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repoDB.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user last login", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SessionOutput{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(s.cfg.GetMinute("jwt.ttl_minutes")),
		User: SessionUser{
			ID:          user.ID,
			Email:       user.Email,
			FullName:    user.FullName,
			AvatarURL:   user.AvatarURL,
			LastLoginAt: now,
		},
	}, nil
}

type RefreshInput struct {
	Token string `validate:"required"`
}

// Refresh exchanges a still valid token for a new one. There is no server
// side session, so an expired token cannot be refreshed.
func (s *Usecase) Refresh(ctx context.Context, in RefreshInput) (*SessionOutput, error) {
	ctx, span := s.startSpan(ctx, "Refresh")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, errUnauthorized()
	}

	clm, err := s.jwt.Verify(in.Token)
	if err != nil {
		slog.WarnContext(ctx, "refresh with invalid token", "error", err)
		return nil, errUnauthorized()
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID, false)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found for refresh", "user_id", clm.UserID)
		return nil, errUnauthorized()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.mintSession(ctx, user)
}

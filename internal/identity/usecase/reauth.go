package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
)

const reauthWindow = 15 * time.Minute

// reauthenticate checks password against the signed-in account before a
// sensitive change. Attempts per account are capped by
// modules.identity.reauth_limit within reauthWindow; zero disables the cap.
func (s *Usecase) reauthenticate(ctx context.Context, password string) (*entity.UserCredentialInfo, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	limit := s.cfg.GetInt64("modules.identity.reauth_limit")
	allowed, err := s.limiter.Allow(ctx, "reauth:"+strconv.FormatInt(clm.UserID, 10), limit, reauthWindow)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check reauth limit", "user_id", clm.UserID, "error", err)
		allowed = true
	}
	if !allowed {
		slog.WarnContext(ctx, "reauth limit reached", "user_id", clm.UserID)
		return nil, goerror.NewBusinessWithFields("Too many password attempts. Please try again later",
			goerror.CodeTooManyRequest, keyOfReason, ReasonRateLimited)
	}

	user, err := s.repoDB.GetUserCredentialInfoByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user credential info", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.Password, password) {
		slog.WarnContext(ctx, "password mismatch on reauth", "user_id", user.ID)
		return nil, goerror.NewBusiness("invalid password", goerror.CodeUnauthorized)
	}

	return user, nil
}

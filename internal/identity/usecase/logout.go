package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
)

// Logout only acknowledges the request; tokens are stateless and the client
// drops its copy.
func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	slog.InfoContext(ctx, "user logged out", "user_id", clm.UserID)

	return nil
}

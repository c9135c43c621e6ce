package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
)

type PreferencesUpdateInput struct {
	Currency           *string `validate:"omitempty,iso4217"`
	Theme              *string `validate:"omitempty,oneof=light dark system"`
	Language           *string `validate:"omitempty,bcp47_language_tag"`
	EmailNotifications *bool
	PushNotifications  *bool
}

func (s *Usecase) Preferences(ctx context.Context) (valueobject.JSONMap, error) {
	ctx, span := s.startSpan(ctx, "Preferences")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	return entity.DefaultPreferences().Merge(user.Preferences), nil
}

// PreferencesUpdate merges the provided fields into the stored preferences.
func (s *Usecase) PreferencesUpdate(ctx context.Context, in PreferencesUpdateInput) (valueobject.JSONMap, error) {
	ctx, span := s.startSpan(ctx, "PreferencesUpdate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	patch := valueobject.JSONMap{}
	if in.Currency != nil {
		patch.Set("currency", *in.Currency)
	}
	if in.Theme != nil {
		patch.Set("theme", *in.Theme)
	}
	if in.Language != nil {
		patch.Set("language", *in.Language)
	}

	notif := map[string]any{}
	if in.EmailNotifications != nil {
		notif["email"] = *in.EmailNotifications
	}
	if in.PushNotifications != nil {
		notif["push"] = *in.PushNotifications
	}
	if len(notif) > 0 {
		patch.Set("notifications", notif)
	}

	prefs := entity.DefaultPreferences().Merge(user.Preferences).Merge(patch)

	if err := s.repoDB.UpdateUserPreferences(ctx, user.ID, prefs); err != nil {
		slog.ErrorContext(ctx, "failed to update user preferences", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return prefs, nil
}

package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/notification/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/mail"
	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
)

type ConsumeAccountVerifiedInput struct {
	UserID   int64  `validate:"required,gt=0"`
	Email    string `validate:"required,email"`
	FullName string `validate:"required,min=2,max=100"`
	Language string `validate:"omitempty,bcp47_language_tag"`
}

// ConsumeAccountVerified welcomes a freshly verified account in its language.
// Malformed messages are dropped so the broker does not redeliver them.
func (s *Usecase) ConsumeAccountVerified(ctx context.Context, in ConsumeAccountVerifiedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAccountVerified")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "dropping invalid account verified message", "user_id", in.UserID, "error", err)
		return nil
	}

	tpl := s.template(ctx, entity.TriggerKeyUserWelcome, entity.ChannelEmail)
	if tpl == nil {
		return nil
	}

	lang := s.translator.Match(in.Language)
	data := s.baseData(lang)
	data["full_name"] = in.FullName

	out, err := s.render(tpl, lang, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render welcome email", "user_id", in.UserID, "error", err)
		return nil
	}

	s.deliverEmail(ctx, entity.Notification{
		ID:         s.uid.Generate(),
		UserID:     in.UserID,
		TriggerKey: entity.TriggerKeyUserWelcome,
		Data:       valueobject.JSONMap{"email": in.Email, "full_name": in.FullName},
		Metadata:   valueobject.JSONMap{"channel": entity.ChannelEmail.String(), "language": lang.String()},
	}, mail.Message{
		To:       []string{in.Email},
		Subject:  out.Subject,
		HTMLBody: out.HTML,
	})

	return nil
}

// deliverEmail records the notification with a queued delivery, sends the
// message and stores the outcome. Failures are logged, never returned: the
// delivery row is the record of what happened.
func (s *Usecase) deliverEmail(ctx context.Context, n entity.Notification, msg mail.Message) {
	deliveryID, err := s.repoDB.CreateNotification(ctx, n, entity.ChannelEmail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create notification", "user_id", n.UserID, "trigger_key", n.TriggerKey.String(), "error", err)
		return
	}

	attempts, sendErr := s.repoMail.Send(ctx, msg)

	d := entity.Delivery{
		ID:               deliveryID,
		Status:           entity.DeliveryStatusSent,
		Attempts:         attempts,
		ProviderResponse: valueobject.JSONMap{},
	}
	if sendErr != nil {
		d.Status = entity.DeliveryStatusFailed
		d.ProviderResponse = valueobject.JSONMap{"error": sendErr.Error()}
		slog.ErrorContext(ctx, "failed to send notification email", "delivery_id", deliveryID, "user_id", n.UserID, "attempts", attempts, "error", sendErr)
	}

	if err := s.repoDB.FinishDelivery(ctx, d); err != nil {
		slog.ErrorContext(ctx, "failed to repo finish delivery", "delivery_id", deliveryID, "status", d.Status.String(), "error", err)
	}
}

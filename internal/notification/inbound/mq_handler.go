package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/notification/usecase"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/messaging"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
)

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

// begin restores the publisher's correlation id, starts the consumer span
// and decodes the body into dst. ok is false for a body that can never be
// processed; such a message is acknowledged and dropped.
func (h *MQHandler) begin(ctx context.Context, name string, d messaging.Delivery, dst any) (context.Context, trace.Span, bool) {
	cID := d.Header(event.HeaderCorrelationID)
	if cID == "" {
		cID = h.uuid.Generate()
	}
	ctx = instrument.SetCorrelationID(ctx, cID)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, name, trace.WithSpanKind(trace.SpanKindConsumer))
	slog.InfoContext(ctx, "consume message", "handler", name, "attempt", d.Attempt, "msg_body", string(d.Body))

	if err := json.Unmarshal(d.Body, dst); err != nil {
		slog.ErrorContext(ctx, "dropping undecodable message", "handler", name, "msg_body", string(d.Body), "error", err)
		return ctx, span, false
	}

	return ctx, span, true
}

func (h *MQHandler) AccountVerifiedNotification(ctx context.Context, d messaging.Delivery) error {
	var msg event.AccountVerifiedMessage
	ctx, span, ok := h.begin(ctx, "AccountVerifiedNotification", d, &msg)
	defer span.End()
	if !ok {
		return nil
	}

	return h.uc.ConsumeAccountVerified(ctx, usecase.ConsumeAccountVerifiedInput{
		UserID:   msg.UserID,
		Email:    msg.Email,
		FullName: msg.FullName,
		Language: msg.Language,
	})
}

func (h *MQHandler) AccountDeletedNotification(ctx context.Context, d messaging.Delivery) error {
	var msg event.AccountDeletedMessage
	ctx, span, ok := h.begin(ctx, "AccountDeletedNotification", d, &msg)
	defer span.End()
	if !ok {
		return nil
	}

	if err := h.uc.ConsumeAccountDeleted(ctx, usecase.ConsumeAccountDeletedInput{UserID: msg.UserID}); err != nil {
		slog.ErrorContext(ctx, "failed to consume account deleted, will be redelivered", "user_id", msg.UserID, "error", err)
		return err
	}

	return nil
}

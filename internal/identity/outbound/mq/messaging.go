package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/fintrack/internal/identity/usecase"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/messaging"
	"github.com/shandysiswandi/fintrack/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishAccountVerified(ctx context.Context, msg usecase.AccountVerifiedEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishAccountVerified")
	defer span.End()

	return m.publish(ctx, span, event.AccountVerifiedDestination, msg.UserID, event.AccountVerifiedMessage{
		UserID:   msg.UserID,
		Email:    msg.Email,
		FullName: msg.FullName,
		Language: msg.Language,
	})
}

func (m *Messaging) PublishAccountDeleted(ctx context.Context, msg usecase.AccountDeletedEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishAccountDeleted")
	defer span.End()

	return m.publish(ctx, span, event.AccountDeletedDestination, msg.UserID, event.AccountDeletedMessage{
		UserID: msg.UserID,
		Email:  msg.Email,
	})
}

// publish keys every event by account so a broker that partitions keeps one
// account's events in order.
func (m *Messaging) publish(ctx context.Context, span trace.Span, topic string, userID int64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, topic, messaging.Message{
		Key:     strconv.FormatInt(userID, 10),
		Headers: map[string]string{event.HeaderCorrelationID: instrument.GetCorrelationID(ctx)},
		Body:    body,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

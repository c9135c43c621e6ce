package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/finance/usecase"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/messaging"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/shared/event"
)

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, d messaging.Delivery) context.Context {
	if cID := d.Header(event.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// AccountDeletedFinance purges the ledger of a deleted account.
func (h *MQHandler) AccountDeletedFinance(ctx context.Context, d messaging.Delivery) error {
	ctx = h.ensureCorrelationID(ctx, d)

	ctx, span := h.ins.Tracer("finance.inbound.mq").Start(ctx, "AccountDeletedFinance")
	defer span.End()

	body := d.Body
	slog.InfoContext(ctx, "consume: account deleted finance", "msg_body", string(body), "attempt", d.Attempt)

	var payload event.AccountDeletedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of account deleted finance", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeAccountDeleted(ctx, usecase.ConsumeAccountDeletedInput{UserID: payload.UserID}); err != nil {
		slog.ErrorContext(ctx, "failed to consume account deleted", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

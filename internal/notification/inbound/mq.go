package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goroutine"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/messaging"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	handler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	// each consumer name doubles as its group so notification and finance
	// both receive every account_deleted event
	consumers := []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{name: event.AccountVerifiedConsumerNotification, topic: event.AccountVerifiedDestination, handler: handler.AccountVerifiedNotification},
		{name: event.AccountDeletedConsumerNotification, topic: event.AccountDeletedDestination, handler: handler.AccountDeletedNotification},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		_ = routine.Go(ctx, consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "starting consumer", "consumer", consumer.name, "topic", consumer.topic)
			return messenger.Consume(pCtx, consumer.topic, consumer.handler,
				messaging.WithGroup(consumer.name),
				messaging.WithConcurrency(10),
				messaging.WithMaxInFlight(10),
			)
		})
	}
}

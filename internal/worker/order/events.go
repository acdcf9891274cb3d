package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cryptokiosk/kiosk/internal/config"
	"github.com/cryptokiosk/kiosk/internal/messaging"
	ordersvc "github.com/cryptokiosk/kiosk/internal/service/order"
	"github.com/cryptokiosk/kiosk/internal/worker"
)

var workerTracer = otel.Tracer("github.com/cryptokiosk/kiosk/worker/order")

// Module registers order-event worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderEventHandler builds the handler that surfaces order lifecycle
// events to operators. Fulfilment notifications hook in here.
func NewOrderEventHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		switch event.Type {
		case ordersvc.EventOrderCreated:
			logger.Info("new order placed",
				zap.Int64("id", event.ID),
				zap.Int64("order_number", event.OrderNumber),
				zap.Int64("user_tg_id", event.UserTgID),
				zap.String("crypto_type", event.CryptoType),
				zap.Float64("amount", event.Amount),
			)
		case ordersvc.EventOrderCompleted:
			logger.Info("order fulfilled",
				zap.Int64("id", event.ID),
				zap.Int64("order_number", event.OrderNumber),
				zap.Int64("completed_at", event.CompletedAt),
			)
		default:
			logger.Warn("unknown order event type", zap.String("type", event.Type))
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}

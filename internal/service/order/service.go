package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cryptokiosk/kiosk/internal/cache"
	"github.com/cryptokiosk/kiosk/internal/config"
	"github.com/cryptokiosk/kiosk/internal/entity"
	"github.com/cryptokiosk/kiosk/internal/messaging"
	"github.com/cryptokiosk/kiosk/internal/metrics"
	store "github.com/cryptokiosk/kiosk/internal/repository/order"
	"github.com/cryptokiosk/kiosk/pkg/apperr"
)

var serviceTracer = otel.Tracer("github.com/cryptokiosk/kiosk/service/order")

// Store is the persistence surface the service needs from the order store.
type Store interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	ListByUser(ctx context.Context, tgID int64) ([]entity.Order, error)
	Complete(ctx context.Context, id int64) (bool, error)
}

// CreateInput carries the caller-supplied order fields. Identifier,
// order number, and timestamps are assigned by the store.
type CreateInput struct {
	UserTgID            int64
	UserName            string
	UserUsername        string
	CryptoType          string
	CryptoDisplay       string
	Amount              float64
	WalletAddress       string
	AmountCurrency      float64
	CurrencySymbol      string
	DeliveryMethod      string
	ProofPhotoFileID    string
	ProofDocumentFileID string
}

// Service implements the storefront order operations on top of the
// store, with caching, lifecycle events, and metrics around them.
type Service struct {
	store     Store
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	metrics   *metrics.OrderMetrics
	messaging messagingConfig
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store     Store
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
	Metrics   *metrics.OrderMetrics
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:     p.Store,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// Create validates the input and persists a new order. The new row's
// identifier, per-day number, and creation time come back on the result.
func (s *Service) Create(ctx context.Context, input CreateInput) (*entity.Order, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(
		attribute.Int64("order.user_tg_id", input.UserTgID),
		attribute.String("order.crypto_type", input.CryptoType),
	))
	defer span.End()

	order := &entity.Order{
		UserTgID:            input.UserTgID,
		UserName:            input.UserName,
		UserUsername:        input.UserUsername,
		CryptoType:          input.CryptoType,
		CryptoDisplay:       input.CryptoDisplay,
		Amount:              input.Amount,
		WalletAddress:       input.WalletAddress,
		AmountCurrency:      input.AmountCurrency,
		CurrencySymbol:      input.CurrencySymbol,
		DeliveryMethod:      input.DeliveryMethod,
		ProofPhotoFileID:    input.ProofPhotoFileID,
		ProofDocumentFileID: input.ProofDocumentFileID,
	}

	if err := s.store.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, apperr.Internal("failed to create order", apperr.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil && s.logger != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}

	s.metrics.OrderCreated()
	s.publishEvent(ctx, EventOrderCreated, order)
	return order, nil
}

// Get retrieves an order by id, consulting the cache first. A missing
// order surfaces as a not-found application error, never an internal one.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, apperr.Internal("failed to load order", apperr.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil && s.logger != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}

	return order, nil
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, tgID int64) ([]entity.Order, error) {
	if tgID <= 0 {
		return nil, apperr.BadRequest("a valid user id is required")
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.ListByUser", trace.WithAttributes(attribute.Int64("order.user_tg_id", tgID)))
	defer span.End()

	orders, err := s.store.ListByUser(ctx, tgID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, apperr.Internal("failed to list orders", apperr.WithCause(err))
	}
	return orders, nil
}

// Complete marks the order completed and returns the refreshed record.
// Repeating the call advances the completion timestamp.
func (s *Service) Complete(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Complete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	ok, err := s.store.Complete(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, apperr.Internal("failed to complete order", apperr.WithCause(err))
	}
	if !ok {
		span.SetStatus(codes.Error, "not found")
		return nil, apperr.NotFound("order not found")
	}

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, apperr.Internal("failed to load order", apperr.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil && s.logger != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}

	s.metrics.OrderCompleted()
	s.publishEvent(ctx, EventOrderCompleted, order)
	return order, nil
}

func validateCreate(input CreateInput) error {
	if input.UserTgID <= 0 {
		return apperr.BadRequest("a valid user id is required")
	}
	if strings.TrimSpace(input.CryptoType) == "" {
		return apperr.BadRequest("crypto type is required")
	}
	if input.Amount <= 0 {
		return apperr.BadRequest("amount must be positive")
	}
	if strings.TrimSpace(input.WalletAddress) == "" {
		return apperr.BadRequest("wallet address is required")
	}
	return nil
}

func (s *Service) publishEvent(ctx context.Context, eventType string, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := Event{
		Type:        eventType,
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		UserTgID:    order.UserTgID,
		CryptoType:  order.CryptoType,
		Amount:      order.Amount,
		CreatedAt:   order.CreatedAt,
		CompletedAt: order.CompletedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.Error(err))
		}
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order event", zap.String("type", eventType), zap.Error(err))
		}
	}
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

// Event types emitted on the order topic.
const (
	EventOrderCreated   = "order.created"
	EventOrderCompleted = "order.completed"
)

// Event is the message published for order lifecycle transitions.
type Event struct {
	Type        string  `json:"type"`
	ID          int64   `json:"id"`
	OrderNumber int64   `json:"order_number"`
	UserTgID    int64   `json:"user_tg_id"`
	CryptoType  string  `json:"crypto_type"`
	Amount      float64 `json:"amount"`
	CreatedAt   int64   `json:"created_at"`
	CompletedAt int64   `json:"completed_at,omitempty"`
}

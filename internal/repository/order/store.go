package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cryptokiosk/kiosk/internal/database"
	"github.com/cryptokiosk/kiosk/internal/entity"
)

var storeTracer = otel.Tracer("github.com/cryptokiosk/kiosk/repository/order")

// ErrNotFound is returned when no order row matches the identifier.
// Callers treat it as a normal lookup miss, not a storage failure.
var ErrNotFound = errors.New("order not found")

// dayBucket is the width of one order-numbering bucket: UTC days cut at
// 86400-second boundaries from the epoch, not calendar days.
const dayBucket = 86400

// Store persists orders in a single relational table. Each method issues
// its statements sequentially and commits per statement; no transaction
// spans the numbering read and the insert.
type Store struct {
	writer *bun.DB
	reader *bun.DB
	logger *zap.Logger

	// now is stubbed in tests.
	now func() int64
}

// NewStore wires an order store over the configured database connections.
func NewStore(conns *database.Connections, logger *zap.Logger) *Store {
	return &Store{
		writer: conns.Writer,
		reader: conns.Reader,
		logger: logger,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// EnsureSchema creates the orders table and its secondary indexes if they
// are missing. It is idempotent and intended to run once at startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, span := storeTracer.Start(ctx, "OrderStore.EnsureSchema")
	defer span.End()

	_, err := s.writer.NewCreateTable().
		Model((*entity.Order)(nil)).
		IfNotExists().
		ForeignKey(`("user_tg_id") REFERENCES "users" ("tg_id")`).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create table failed")
		return err
	}

	indexes := []struct {
		name   string
		column string
	}{
		{"idx_orders_user_tg_id", "user_tg_id"},
		{"idx_orders_created_at", "created_at"},
	}
	for _, idx := range indexes {
		_, err := s.writer.NewCreateIndex().
			Model((*entity.Order)(nil)).
			IfNotExists().
			Index(idx.name).
			Column(idx.column).
			Exec(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "create index failed")
			return err
		}
	}

	if s.logger != nil {
		s.logger.Debug("orders schema ensured")
	}
	return nil
}

// Create inserts a new order, assigning the per-day order number and the
// creation timestamp. The count-then-insert is not serialized, so two
// concurrent creates in the same bucket can share an order number; the
// field is display-only and the duplicate is tolerated.
func (s *Store) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := storeTracer.Start(ctx, "OrderStore.Create", trace.WithAttributes(
		attribute.Int64("order.user_tg_id", order.UserTgID),
		attribute.String("order.crypto_type", order.CryptoType),
	))
	defer span.End()

	now := s.now()
	todayStart := now - now%dayBucket

	// The count feeds the insert, so it runs on the writer: replica lag
	// would skew the numbering even further than the accepted race.
	count, err := s.writer.NewSelect().
		Model((*entity.Order)(nil)).
		Where("created_at >= ?", todayStart).
		Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "daily count failed")
		return err
	}

	order.OrderNumber = int64(count) + 1
	order.CreatedAt = now
	order.CompletedAt = 0

	if _, err := s.writer.NewInsert().Model(order).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}

	if s.logger != nil {
		s.logger.Debug("order created",
			zap.Int64("id", order.ID),
			zap.Int64("order_number", order.OrderNumber),
			zap.Int64("user_tg_id", order.UserTgID),
		)
	}
	return nil
}

// GetByID fetches an order by primary key, preferring the read replica.
// A missing row yields ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := storeTracer.Start(ctx, "OrderStore.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := s.reader.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// ListByUser returns the user's orders, newest first.
func (s *Store) ListByUser(ctx context.Context, tgID int64) ([]entity.Order, error) {
	ctx, span := storeTracer.Start(ctx, "OrderStore.ListByUser", trace.WithAttributes(attribute.Int64("order.user_tg_id", tgID)))
	defer span.End()

	var orders []entity.Order
	err := s.reader.NewSelect().
		Model(&orders).
		Where("user_tg_id = ?", tgID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// Complete stamps completed_at on the order, unconditionally; a repeated
// call simply refreshes the timestamp. It reports whether a row matched.
func (s *Store) Complete(ctx context.Context, id int64) (bool, error) {
	ctx, span := storeTracer.Start(ctx, "OrderStore.Complete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	res, err := s.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("completed_at = ?", s.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return false, nil
	}

	if s.logger != nil {
		s.logger.Debug("order completed", zap.Int64("id", id))
	}
	return true, nil
}

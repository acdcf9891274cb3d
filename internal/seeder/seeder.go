package seeder

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/cryptokiosk/kiosk/internal/database"
	"github.com/cryptokiosk/kiosk/internal/entity"
	store "github.com/cryptokiosk/kiosk/internal/repository/order"
)

// Seeder loads demo data for local/dev setups.
type Seeder struct {
	db     *bun.DB
	orders *store.Store
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, orders *store.Store, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, orders: orders, logger: logger}
}

const demoUserTgID = 42

// Orders seeds a demo user and a couple of example orders. Orders go
// through the store so they pick up real numbering and timestamps.
func (s *Seeder) Orders(ctx context.Context) error {
	// The users table belongs to the bot's user management; this dev-only
	// stand-in exists so the orders foreign key can be satisfied locally.
	if _, err := s.db.NewRaw(
		`CREATE TABLE IF NOT EXISTS users (tg_id BIGINT PRIMARY KEY, name VARCHAR, username VARCHAR)`,
	).Exec(ctx); err != nil {
		return err
	}
	// Ignore() renders the dialect's duplicate-skipping form, so the
	// seeder works on whichever driver the connection uses.
	demoUser := map[string]interface{}{
		"tg_id":    int64(demoUserTgID),
		"name":     "Demo User",
		"username": "demo",
	}
	if _, err := s.db.NewInsert().
		Model(&demoUser).
		Table("users").
		Ignore().
		Exec(ctx); err != nil {
		return err
	}

	if err := s.orders.EnsureSchema(ctx); err != nil {
		return err
	}

	samples := []entity.Order{
		{
			UserTgID:       demoUserTgID,
			UserName:       "Demo User",
			UserUsername:   "demo",
			CryptoType:     "BTC",
			CryptoDisplay:  "Bitcoin",
			Amount:         0.01,
			WalletAddress:  "bc1qexampleaddressxxxxxxxxxxxxxxxxxxxxxxxx",
			AmountCurrency: 650.0,
			CurrencySymbol: "USD",
			DeliveryMethod: "email",
		},
		{
			UserTgID:       demoUserTgID,
			UserName:       "Demo User",
			UserUsername:   "demo",
			CryptoType:     "ETH",
			CryptoDisplay:  "Ethereum",
			Amount:         0.5,
			WalletAddress:  "0xexampleaddress0000000000000000000000000000",
			AmountCurrency: 1200.0,
			CurrencySymbol: "USD",
			DeliveryMethod: "telegram",
		},
	}

	for i := range samples {
		if err := s.orders.Create(ctx, &samples[i]); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	}
	return nil
}

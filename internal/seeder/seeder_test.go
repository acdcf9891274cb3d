package seeder_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"go.uber.org/zap"

	"github.com/cryptokiosk/kiosk/internal/database"
	store "github.com/cryptokiosk/kiosk/internal/repository/order"
	"github.com/cryptokiosk/kiosk/internal/seeder"
)

func TestSeeder_Orders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bunDB := bun.NewDB(db, pgdialect.New())
	conns := &database.Connections{Writer: bunDB, Reader: bunDB}
	orders := store.NewStore(conns, zap.NewNop())
	seed := seeder.New(conns, orders, zap.NewNop())

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// The demo user insert must skip duplicates on re-runs; on postgres
	// bun renders Ignore() as ON CONFLICT DO NOTHING.
	mock.ExpectExec(`INSERT INTO "users"(.+)ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS "idx_orders_user_tg_id"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS "idx_orders_created_at"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT count\(\*\) FROM "orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(i))
		mock.ExpectQuery(`INSERT INTO "orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(i + 1))
	}

	require.NoError(t, seed.Orders(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

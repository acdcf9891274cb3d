package order

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"go.uber.org/zap"

	"github.com/cryptokiosk/kiosk/internal/database"
	"github.com/cryptokiosk/kiosk/internal/entity"
)

var orderColumns = []string{
	"id", "order_number", "user_tg_id", "user_name", "user_username",
	"crypto_type", "crypto_display", "amount", "wallet_address",
	"amount_currency", "currency_symbol", "delivery_method",
	"proof_photo_file_id", "proof_document_file_id",
	"created_at", "completed_at",
}

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bunDB := bun.NewDB(db, pgdialect.New())
	conns := &database.Connections{Writer: bunDB, Reader: bunDB}
	return NewStore(conns, zap.NewNop()), mock
}

func expectSchemaStatements(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS "idx_orders_user_tg_id"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS "idx_orders_created_at"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestStore_EnsureSchemaIdempotent(t *testing.T) {
	s, mock := newTestStore(t)

	// Every invocation issues the same IF NOT EXISTS statements, so a
	// second run is a no-op at the database level.
	expectSchemaStatements(mock)
	expectSchemaStatements(mock)

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateAssignsDailyNumber(t *testing.T) {
	s, mock := newTestStore(t)

	fixedNow := int64(1_756_200_086)
	todayStart := fixedNow - fixedNow%86400
	s.now = func() int64 { return fixedNow }

	// Two orders already exist in today's bucket.
	mock.ExpectQuery(fmt.Sprintf(`SELECT count\(\*\) FROM "orders" AS "order" WHERE \(created_at >= %d\)`, todayStart)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	order := &entity.Order{
		UserTgID:      42,
		CryptoType:    "BTC",
		Amount:        0.01,
		WalletAddress: "bc1qtest",
	}
	require.NoError(t, s.Create(context.Background(), order))

	require.Equal(t, int64(7), order.ID)
	require.Equal(t, int64(3), order.OrderNumber)
	require.Equal(t, fixedNow, order.CreatedAt)
	require.False(t, order.Completed())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateSequenceWithinBucket(t *testing.T) {
	s, mock := newTestStore(t)
	s.now = func() int64 { return 1_756_200_000 }

	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`SELECT count\(\*\) FROM "orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(i))
		mock.ExpectQuery(`INSERT INTO "orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(i + 1))
	}

	for i := 0; i < 3; i++ {
		order := &entity.Order{
			UserTgID:      42,
			CryptoType:    "BTC",
			Amount:        0.01,
			WalletAddress: "bc1qtest",
		}
		require.NoError(t, s.Create(context.Background(), order))
		require.Equal(t, int64(i+1), order.OrderNumber)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateNilOrder(t *testing.T) {
	s, _ := newTestStore(t)
	require.Error(t, s.Create(context.Background(), nil))
}

func TestStore_GetByID(t *testing.T) {
	s, mock := newTestStore(t)

	row := sqlmock.NewRows(orderColumns).AddRow(
		int64(5), int64(1), int64(42), "Satoshi", "satoshi",
		"BTC", "Bitcoin", 0.01, "bc1qtest",
		650.0, "USD", "email",
		"", "",
		int64(1_756_200_000), nil,
	)
	mock.ExpectQuery(`SELECT (.+) FROM "orders" AS "order" WHERE \(id = 5\)`).
		WillReturnRows(row)

	order, err := s.GetByID(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), order.ID)
	require.Equal(t, int64(42), order.UserTgID)
	require.Equal(t, "BTC", order.CryptoType)
	require.Equal(t, 650.0, order.AmountCurrency)
	require.False(t, order.Completed())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetByIDNotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM "orders" AS "order" WHERE \(id = 404\)`).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	order, err := s.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, order)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListByUser(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows(orderColumns).
		AddRow(int64(2), int64(2), int64(42), "", "", "ETH", "Ethereum", 0.5, "0xtest", 1200.0, "USD", "", "", "", int64(1_756_200_100), nil).
		AddRow(int64(1), int64(1), int64(42), "", "", "BTC", "Bitcoin", 0.01, "bc1qtest", 650.0, "USD", "", "", "", int64(1_756_200_000), nil)
	mock.ExpectQuery(`SELECT (.+) FROM "orders" AS "order" WHERE \(user_tg_id = 42\) ORDER BY "created_at" DESC`).
		WillReturnRows(rows)

	orders, err := s.ListByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, int64(2), orders[0].ID)
	require.Equal(t, int64(1), orders[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Complete(t *testing.T) {
	s, mock := newTestStore(t)

	completedAt := int64(1_756_200_500)
	s.now = func() int64 { return completedAt }

	mock.ExpectExec(fmt.Sprintf(`UPDATE "orders"(.+)SET completed_at = %d WHERE \(id = 5\)`, completedAt)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.Complete(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CompleteRepeatedRefreshesTimestamp(t *testing.T) {
	s, mock := newTestStore(t)

	first := int64(1_756_200_500)
	s.now = func() int64 { return first }
	mock.ExpectExec(fmt.Sprintf(`UPDATE "orders"(.+)SET completed_at = %d`, first)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.Complete(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, ok)

	// The update is unconditional: a second call stamps a later time.
	second := first + 60
	s.now = func() int64 { return second }
	mock.ExpectExec(fmt.Sprintf(`UPDATE "orders"(.+)SET completed_at = %d`, second)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err = s.Complete(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CompleteUnknownID(t *testing.T) {
	s, mock := newTestStore(t)
	s.now = func() int64 { return 1_756_200_500 }

	mock.ExpectExec(`UPDATE "orders"(.+)SET completed_at =`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.Complete(context.Background(), 404)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

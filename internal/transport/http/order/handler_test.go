package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cryptokiosk/kiosk/internal/cache"
	"github.com/cryptokiosk/kiosk/internal/config"
	"github.com/cryptokiosk/kiosk/internal/dto"
	"github.com/cryptokiosk/kiosk/internal/entity"
	"github.com/cryptokiosk/kiosk/internal/metrics"
	store "github.com/cryptokiosk/kiosk/internal/repository/order"
	service "github.com/cryptokiosk/kiosk/internal/service/order"
	handler "github.com/cryptokiosk/kiosk/internal/transport/http/order"
)

// memStore backs the service with map-based order storage so the handlers
// run against real service semantics.
type memStore struct {
	orders map[int64]*entity.Order
	nextID int64
	now    int64
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[int64]*entity.Order), now: 1_756_200_000}
}

func (s *memStore) Create(_ context.Context, order *entity.Order) error {
	todayStart := s.now - s.now%86400
	var count int64
	for _, o := range s.orders {
		if o.CreatedAt >= todayStart {
			count++
		}
	}
	s.nextID++
	order.ID = s.nextID
	order.OrderNumber = count + 1
	order.CreatedAt = s.now
	order.CompletedAt = 0

	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) ListByUser(_ context.Context, tgID int64) ([]entity.Order, error) {
	var out []entity.Order
	for _, o := range s.orders {
		if o.UserTgID == tgID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memStore) Complete(_ context.Context, id int64) (bool, error) {
	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	o.CompletedAt = s.now + 120
	return true, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`
	Meta    map[string]any  `json:"meta"`
}

type envelopeError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	svc := service.NewService(service.Params{
		Store:   newMemStore(),
		Cache:   cache.NoopStore{},
		Config:  config.Config{Cache: config.Cache{DefaultTTL: time.Minute}},
		Logger:  zap.NewNop(),
		Metrics: metrics.NewOrderMetrics(),
	})

	e := echo.New()
	handler.Register(e, handler.NewHandler(svc))
	return e
}

func doRequest(t *testing.T, e *echo.Echo, method, path, body string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

const createBody = `{
	"user_tg_id": 42,
	"user_name": "Satoshi",
	"user_username": "satoshi",
	"crypto_type": "BTC",
	"crypto_display": "Bitcoin",
	"amount": 0.01,
	"wallet_address": "bc1qexampleaddress",
	"amount_currency": 650.0,
	"currency_symbol": "USD",
	"delivery_method": "email"
}`

func TestHandler_OrderLifecycle(t *testing.T) {
	e := newTestServer(t)

	code, env := doRequest(t, e, http.MethodPost, "/orders", createBody)
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)

	var created dto.OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Positive(t, created.ID)
	require.Equal(t, int64(1), created.OrderNumber)
	require.Equal(t, int64(42), created.UserTgID)
	require.Equal(t, "BTC", created.CryptoType)
	require.Equal(t, "bc1qexampleaddress", created.WalletAddress)
	require.Zero(t, created.CompletedAt)

	code, env = doRequest(t, e, http.MethodGet, "/orders/1", "")
	require.Equal(t, http.StatusOK, code)

	var fetched dto.OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	require.Equal(t, created, fetched)

	code, env = doRequest(t, e, http.MethodPost, "/orders/1/complete", "")
	require.Equal(t, http.StatusOK, code)

	var completed dto.OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &completed))
	require.Positive(t, completed.CompletedAt)
	require.GreaterOrEqual(t, completed.CompletedAt, completed.CreatedAt)
}

func TestHandler_GetUnknownOrder(t *testing.T) {
	e := newTestServer(t)

	code, env := doRequest(t, e, http.MethodGet, "/orders/999", "")
	require.Equal(t, http.StatusNotFound, code)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, "not_found", env.Error.Kind)
}

func TestHandler_CompleteUnknownOrder(t *testing.T) {
	e := newTestServer(t)

	code, env := doRequest(t, e, http.MethodPost, "/orders/999/complete", "")
	require.Equal(t, http.StatusNotFound, code)
	require.False(t, env.Success)
}

func TestHandler_InvalidID(t *testing.T) {
	e := newTestServer(t)

	code, env := doRequest(t, e, http.MethodGet, "/orders/abc", "")
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "bad_request", env.Error.Kind)
}

func TestHandler_CreateRejectsInvalidPayload(t *testing.T) {
	e := newTestServer(t)

	code, env := doRequest(t, e, http.MethodPost, "/orders", `{"user_tg_id": 0}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.False(t, env.Success)
	require.Equal(t, "bad_request", env.Error.Kind)
}

func TestHandler_ListByUser(t *testing.T) {
	e := newTestServer(t)

	code, _ := doRequest(t, e, http.MethodPost, "/orders", createBody)
	require.Equal(t, http.StatusCreated, code)
	code, _ = doRequest(t, e, http.MethodPost, "/orders", createBody)
	require.Equal(t, http.StatusCreated, code)

	code, env := doRequest(t, e, http.MethodGet, "/users/42/orders", "")
	require.Equal(t, http.StatusOK, code)

	var orders []dto.OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	require.Len(t, orders, 2)
	require.EqualValues(t, 2, env.Meta["count"])

	code, env = doRequest(t, e, http.MethodGet, "/users/7/orders", "")
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 0, env.Meta["count"])
}

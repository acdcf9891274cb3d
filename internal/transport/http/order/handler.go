package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cryptokiosk/kiosk/internal/dto"
	"github.com/cryptokiosk/kiosk/internal/entity"
	"github.com/cryptokiosk/kiosk/internal/presentation/http/response"
	service "github.com/cryptokiosk/kiosk/internal/service/order"
	"github.com/cryptokiosk/kiosk/pkg/apperr"
)

var httpTracer = otel.Tracer("github.com/cryptokiosk/kiosk/transport/http/order")

// Handler exposes order endpoints to the bot command layer.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.POST("/:id/complete", h.complete)

	e.GET("/users/:tg_id/orders", h.listByUser)
}

type createPayload struct {
	UserTgID            int64   `json:"user_tg_id"`
	UserName            string  `json:"user_name"`
	UserUsername        string  `json:"user_username"`
	CryptoType          string  `json:"crypto_type"`
	CryptoDisplay       string  `json:"crypto_display"`
	Amount              float64 `json:"amount"`
	WalletAddress       string  `json:"wallet_address"`
	AmountCurrency      float64 `json:"amount_currency"`
	CurrencySymbol      string  `json:"currency_symbol"`
	DeliveryMethod      string  `json:"delivery_method"`
	ProofPhotoFileID    string  `json:"proof_photo_file_id"`
	ProofDocumentFileID string  `json:"proof_document_file_id"`
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload createPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(apperr.BadRequest("invalid payload", apperr.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.Int64("order.user_tg_id", payload.UserTgID),
		attribute.String("order.crypto_type", payload.CryptoType),
	))
	defer span.End()

	order, err := h.svc.Create(ctx, service.CreateInput{
		UserTgID:            payload.UserTgID,
		UserName:            payload.UserName,
		UserUsername:        payload.UserUsername,
		CryptoType:          payload.CryptoType,
		CryptoDisplay:       payload.CryptoDisplay,
		Amount:              payload.Amount,
		WalletAddress:       payload.WalletAddress,
		AmountCurrency:      payload.AmountCurrency,
		CurrencySymbol:      payload.CurrencySymbol,
		DeliveryMethod:      payload.DeliveryMethod,
		ProofPhotoFileID:    payload.ProofPhotoFileID,
		ProofDocumentFileID: payload.ProofDocumentFileID,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(order)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(apperr.BadRequest("invalid id", apperr.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) complete(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(apperr.BadRequest("invalid id", apperr.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.complete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Complete(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) listByUser(c echo.Context) error {
	b := response.New(c)

	tgID, err := strconv.ParseInt(c.Param("tg_id"), 10, 64)
	if err != nil {
		return b.WithError(apperr.BadRequest("invalid user id", apperr.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listByUser", trace.WithAttributes(attribute.Int64("order.user_tg_id", tgID)))
	defer span.End()

	orders, err := h.svc.ListByUser(ctx, tgID)
	if err != nil {
		return b.WithError(err).Build()
	}

	resp := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toDTO(&orders[i]))
	}
	return b.WithData(resp).WithMeta("count", len(resp)).Build()
}

func toDTO(order *entity.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:                  order.ID,
		OrderNumber:         order.OrderNumber,
		UserTgID:            order.UserTgID,
		UserName:            order.UserName,
		UserUsername:        order.UserUsername,
		CryptoType:          order.CryptoType,
		CryptoDisplay:       order.CryptoDisplay,
		Amount:              order.Amount,
		WalletAddress:       order.WalletAddress,
		AmountCurrency:      order.AmountCurrency,
		CurrencySymbol:      order.CurrencySymbol,
		DeliveryMethod:      order.DeliveryMethod,
		ProofPhotoFileID:    order.ProofPhotoFileID,
		ProofDocumentFileID: order.ProofDocumentFileID,
		CreatedAt:           order.CreatedAt,
		CompletedAt:         order.CompletedAt,
	}
}

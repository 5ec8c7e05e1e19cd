// AngelaMos | 2026
// handler.go

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

type OrderCreator interface {
	CreateOrder(
		ctx context.Context,
		amount decimal.Decimal,
		currency, receipt string,
		notes map[string]string,
	) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type CreateOrderRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"omitempty,len=3,alpha"`
	Receipt  string          `json:"receipt"  validate:"max=40"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"   validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature"  validate:"required,hexadecimal"`
}

type OrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

type Handler struct {
	gateway   OrderCreator
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(gateway OrderCreator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		gateway:   gateway,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/payments", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/orders", h.CreateOrder)
		r.Post("/verify", h.Verify)
	})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	userID := middleware.GetUserID(r.Context())
	order, err := h.gateway.CreateOrder(
		r.Context(),
		req.Amount,
		req.Currency,
		req.Receipt,
		map[string]string{"user_id": userID},
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			core.BadRequest(w, "amount must be positive with at most two decimals")
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "payment provider rejected the order")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	h.logger.Info("payment.order_created",
		"order_id", order.ID,
		"user_id", userID,
		"amount", order.Amount,
	)

	core.Created(w, OrderResponse{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    h.gateway.KeyID(),
	})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if !h.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		h.logger.Warn("payment.signature_mismatch",
			"order_id", req.OrderID,
			"user_id", middleware.GetUserID(r.Context()),
		)
		core.BadRequest(w, "invalid payment signature")
		return
	}

	core.OK(w, map[string]any{
		"verified":   true,
		"order_id":   req.OrderID,
		"payment_id": req.PaymentID,
	})
}

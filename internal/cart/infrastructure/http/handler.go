package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/anuragm04/storefront/internal/cart/application"
	identityhttp "github.com/anuragm04/storefront/internal/identity/infrastructure/http"
	"github.com/anuragm04/storefront/pkg/apperr"
	"github.com/anuragm04/storefront/pkg/idempotency"
	"github.com/anuragm04/storefront/pkg/validate"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// IdempotencyStore remembers checkout results per Idempotency-Key so a
// retried request returns the original order id instead of placing a second
// order. A key claimed by an in-flight checkout reports StateInProgress
// until its result is recorded or the claim is released.
type IdempotencyStore interface {
	Claim(ctx context.Context, userID, key string) (prev string, state idempotency.State, err error)
	Record(ctx context.Context, userID, key, result string) error
	Release(ctx context.Context, userID, key string) error
}

type Handler struct {
	log     *slog.Logger
	service *application.Service
	idem    IdempotencyStore
	tracer  trace.Tracer
}

// NewHandler builds the cart HTTP surface. idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewHandler(log *slog.Logger, service *application.Service, idem IdempotencyStore) *Handler {
	return &Handler{
		log:     log,
		service: service,
		idem:    idem,
		tracer:  otel.Tracer("cart-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.getCart)
	r.Post("/add", h.addToCart)
	r.Post("/checkout", h.checkout)
	return r
}

type addReq struct {
	ProductID string `json:"product_id" validate:"required"`
	// Quantity bounds are checked by the cart service so a zero or negative
	// value maps to the invalid-quantity error, not a generic validation one.
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	claims := identityhttp.ClaimsFromContext(r.Context())
	cart, err := h.service.Get(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart": cart})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CartAdd")
	defer span.End()

	claims := identityhttp.ClaimsFromContext(ctx)

	var req addReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidInput("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, apperr.InvalidInput(err.Error()))
		return
	}

	cart, err := h.service.Add(ctx, claims.UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "product added to cart",
		"cart":    cart,
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CartCheckout")
	defer span.End()

	claims := identityhttp.ClaimsFromContext(ctx)
	idemKey := r.Header.Get("Idempotency-Key")

	if h.idem != nil && idemKey != "" {
		prev, state, err := h.idem.Claim(ctx, claims.UserID, idemKey)
		if err != nil {
			writeError(w, err)
			return
		}
		switch state {
		case idempotency.StateRecorded:
			writeJSON(w, http.StatusOK, map[string]any{
				"message":  "order already placed",
				"order_id": prev,
			})
			return
		case idempotency.StateInProgress:
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": "a checkout with this idempotency key is already in progress",
			})
			return
		}
	}

	order, err := h.service.Checkout(ctx, claims.UserID, claims.Username)
	if err != nil {
		if h.idem != nil && idemKey != "" {
			_ = h.idem.Release(ctx, claims.UserID, idemKey)
		}
		writeError(w, err)
		return
	}
	if h.idem != nil && idemKey != "" {
		if err := h.idem.Record(ctx, claims.UserID, idemKey, order.ID); err != nil {
			h.log.Error("record idempotency key failed", "order_id", order.ID, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "order placed successfully",
		"order":        order,
		"total_amount": order.TotalCents,
	})
}

// ListOrders reads back the whole order log in append order. Mounted behind
// the admin middleware.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.Orders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

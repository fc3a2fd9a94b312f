package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/anuragm04/storefront/internal/catalog/application"
	"github.com/anuragm04/storefront/internal/catalog/domain"
	"github.com/anuragm04/storefront/pkg/apperr"
	"github.com/anuragm04/storefront/pkg/validate"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

// ListProducts serves the public product listing.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": toProductViews(products)})
}

type createProductReq struct {
	Name       string `json:"name" validate:"required"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
	Stock      int    `json:"stock" validate:"gte=0"`
}

// CreateProduct adds a catalog entry. Mounted behind the admin middleware.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidInput("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, apperr.InvalidInput(err.Error()))
		return
	}

	product, err := h.service.Create(r.Context(), req.Name, req.PriceCents, req.Stock)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductView(product))
}

type productView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
}

func toProductView(p domain.Product) productView {
	return productView{ID: p.ID, Name: p.Name, PriceCents: p.PriceCents, Stock: p.Stock}
}

func toProductViews(products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

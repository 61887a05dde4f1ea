package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lamarea/storefront/internal/models"
	"github.com/lamarea/storefront/pkg/httpx"
)

const (
	defaultProductPageSize = 50
	maxProductPageSize     = 100
)

// ProductCatalogInterface defines the interface for catalog reads
type ProductCatalogInterface interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
}

// ProductResponse is the catalog projection returned to clients
type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Species     string `json:"species"`
	Origin      string `json:"origin"`
	Unit        string `json:"unit"`
	PriceCents  int64  `json:"priceCents"`
	ImageURL    string `json:"imageUrl"`
}

type ProductHandler struct {
	catalog ProductCatalogInterface
}

func NewProductHandler(catalog ProductCatalogInterface) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit := defaultProductPageSize
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxProductPageSize {
		limit = maxProductPageSize
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	products, err := h.catalog.List(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productToResponse(p))
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": out})
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			httpx.WriteNotFound(w, "Product not found")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"product": productToResponse(product)})
}

func productToResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Species:     p.Species,
		Origin:      p.Origin,
		Unit:        p.Unit,
		PriceCents:  p.PriceCents,
		ImageURL:    p.ImageURL,
	}
}

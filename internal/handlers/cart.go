package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lamarea/storefront/internal/auth"
	"github.com/lamarea/storefront/internal/cart"
	"github.com/lamarea/storefront/internal/models"
	"github.com/lamarea/storefront/pkg/httpx"
)

// CartServiceInterface defines the interface for cart business logic
type CartServiceInterface interface {
	GetCart(ctx context.Context, cartID string) ([]models.EnrichedCartItem, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int) error
	UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) (cart.RemoveResult, error)
	Merge(ctx context.Context, dstID, srcID string) error
	Clear(ctx context.Context, cartID string) error
}

// CartHandler handles cart HTTP requests. The cart id travels in the cartId
// cookie; every write upserts the cookie so the 7-day window slides.
type CartHandler struct {
	service      CartServiceInterface
	cookieConfig auth.CookieConfig
	cookieTTL    time.Duration
}

func NewCartHandler(service CartServiceInterface, cookieConfig auth.CookieConfig, cookieTTL time.Duration) *CartHandler {
	return &CartHandler{
		service:      service,
		cookieConfig: cookieConfig,
		cookieTTL:    cookieTTL,
	}
}

// Request DTOs

type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type UpdateQuantityRequest struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity"`
}

type MergeCartRequest struct {
	SourceCartID string `json:"sourceCartId" validate:"required"`
}

// GetCart handles GET /cart. A missing cookie is just an empty cart; no cart
// is created by reads.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID := auth.GetCartCookie(r)
	if cartID == "" {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": []models.EnrichedCartItem{}})
		return
	}

	items, err := h.service.GetCart(r.Context(), cartID)
	if err != nil {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// AddItem handles POST /cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	cartID := auth.GetCartCookie(r)
	if cartID == "" {
		cartID = uuid.New().String()
	}

	if err := h.service.AddItem(r.Context(), cartID, req.ProductID, req.Quantity); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "product_not_found", "Product not found")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	auth.SetCartCookie(w, cartID, h.cookieTTL, h.cookieConfig)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// UpdateQuantity handles PUT /cart. quantity <= 0 removes the item; an
// unknown item id is a no-op success.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	cartID := auth.GetCartCookie(r)
	if cartID == "" {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	if err := h.service.UpdateQuantity(r.Context(), cartID, req.ItemID, req.Quantity); err != nil {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	auth.SetCartCookie(w, cartID, h.cookieTTL, h.cookieConfig)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// RemoveItem handles DELETE /cart?itemId=...
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.URL.Query().Get("itemId")
	if itemID == "" {
		httpx.WriteBadRequest(w, "itemId query parameter is required")
		return
	}

	cartID := auth.GetCartCookie(r)
	if cartID == "" {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"success":        true,
			"itemsRemaining": 0,
			"cartDeleted":    false,
		})
		return
	}

	result, err := h.service.RemoveItem(r.Context(), cartID, itemID)
	if err != nil {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"itemsRemaining": result.ItemsRemaining,
		"cartDeleted":    result.CartDeleted,
	})
}

// ClearCart handles DELETE /cart/items: one atomic store call, not a loop of
// per-item deletes.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cartID := auth.GetCartCookie(r)
	if cartID != "" {
		if err := h.service.Clear(r.Context(), cartID); err != nil {
			httpx.WriteInternalError(w, "Internal server error")
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// MergeCart handles POST /cart/merge: folds another cart (e.g. one carried
// over from a different device/session) into the cookie cart.
func (h *CartHandler) MergeCart(w http.ResponseWriter, r *http.Request) {
	var req MergeCartRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	cartID := auth.GetCartCookie(r)
	if cartID == "" {
		cartID = uuid.New().String()
	}

	if err := h.service.Merge(r.Context(), cartID, req.SourceCartID); err != nil {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	auth.SetCartCookie(w, cartID, h.cookieTTL, h.cookieConfig)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

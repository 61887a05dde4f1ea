package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lamarea/storefront/internal/auth"
	"github.com/lamarea/storefront/internal/cart"
	"github.com/lamarea/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCartService implements CartServiceInterface with function fields
type mockCartService struct {
	GetCartFunc        func(ctx context.Context, cartID string) ([]models.EnrichedCartItem, error)
	AddItemFunc        func(ctx context.Context, cartID, productID string, quantity int) error
	UpdateQuantityFunc func(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItemFunc     func(ctx context.Context, cartID, itemID string) (cart.RemoveResult, error)
	MergeFunc          func(ctx context.Context, dstID, srcID string) error
	ClearFunc          func(ctx context.Context, cartID string) error
}

func (m *mockCartService) GetCart(ctx context.Context, cartID string) ([]models.EnrichedCartItem, error) {
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx, cartID)
	}
	return []models.EnrichedCartItem{}, nil
}

func (m *mockCartService) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	if m.AddItemFunc != nil {
		return m.AddItemFunc(ctx, cartID, productID, quantity)
	}
	return nil
}

func (m *mockCartService) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if m.UpdateQuantityFunc != nil {
		return m.UpdateQuantityFunc(ctx, cartID, itemID, quantity)
	}
	return nil
}

func (m *mockCartService) RemoveItem(ctx context.Context, cartID, itemID string) (cart.RemoveResult, error) {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, cartID, itemID)
	}
	return cart.RemoveResult{}, nil
}

func (m *mockCartService) Merge(ctx context.Context, dstID, srcID string) error {
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, dstID, srcID)
	}
	return nil
}

func (m *mockCartService) Clear(ctx context.Context, cartID string) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, cartID)
	}
	return nil
}

func newTestCartHandler(svc CartServiceInterface) *CartHandler {
	return NewCartHandler(svc, auth.CookieConfig{}, 7*24*time.Hour)
}

func withCartCookie(req *http.Request, cartID string) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.CartCookieName, Value: cartID})
	return req
}

func TestCartHandler_GetCart_NoCookie(t *testing.T) {
	called := false
	svc := &mockCartService{
		GetCartFunc: func(ctx context.Context, cartID string) ([]models.EnrichedCartItem, error) {
			called = true
			return nil, nil
		},
	}
	handler := newTestCartHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	handler.GetCart(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called, "missing cookie must not hit the store")

	body := decodeBody(t, w)
	items, ok := body["items"].([]any)
	require.True(t, ok)
	assert.Empty(t, items)
}

func TestCartHandler_GetCart_WithCookie(t *testing.T) {
	svc := &mockCartService{
		GetCartFunc: func(ctx context.Context, cartID string) ([]models.EnrichedCartItem, error) {
			assert.Equal(t, "cart-abc", cartID)
			return []models.EnrichedCartItem{
				{
					CartItem:   models.CartItem{ID: "line1", ProductID: "prod1", Quantity: 2},
					Name:       "Yellowfin Tuna",
					PriceCents: 2499,
					Unit:       "lb",
				},
			}, nil
		},
	}
	handler := newTestCartHandler(svc)

	req := withCartCookie(httptest.NewRequest(http.MethodGet, "/cart", nil), "cart-abc")
	w := httptest.NewRecorder()
	handler.GetCart(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	line := items[0].(map[string]any)
	assert.Equal(t, "Yellowfin Tuna", line["name"])
	assert.Equal(t, float64(2499), line["priceCents"])
	assert.Equal(t, float64(2), line["quantity"])
}

func TestCartHandler_AddItem_MintsCartID(t *testing.T) {
	var gotCartID string
	svc := &mockCartService{
		AddItemFunc: func(ctx context.Context, cartID, productID string, quantity int) error {
			gotCartID = cartID
			return nil
		},
	}
	handler := newTestCartHandler(svc)

	payload, _ := json.Marshal(map[string]any{"productId": "prod1", "quantity": 2})
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	handler.AddItem(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, gotCartID, "a fresh cart id is minted when no cookie exists")

	cookie := findCookie(w.Result().Cookies(), auth.CartCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, gotCartID, cookie.Value)
}

func TestCartHandler_AddItem_ReusesCookieCartID(t *testing.T) {
	var gotCartID string
	svc := &mockCartService{
		AddItemFunc: func(ctx context.Context, cartID, productID string, quantity int) error {
			gotCartID = cartID
			return nil
		},
	}
	handler := newTestCartHandler(svc)

	payload, _ := json.Marshal(map[string]any{"productId": "prod1", "quantity": 2})
	req := withCartCookie(httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(payload)), "cart-abc")
	w := httptest.NewRecorder()
	handler.AddItem(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cart-abc", gotCartID)

	// Cookie is re-set so the expiry window slides
	cookie := findCookie(w.Result().Cookies(), auth.CartCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, "cart-abc", cookie.Value)
}

func TestCartHandler_AddItem_UnknownProduct(t *testing.T) {
	svc := &mockCartService{
		AddItemFunc: func(ctx context.Context, cartID, productID string, quantity int) error {
			return models.ErrProductNotFound
		},
	}
	handler := newTestCartHandler(svc)

	payload, _ := json.Marshal(map[string]any{"productId": "ghost", "quantity": 1})
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	handler.AddItem(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "product_not_found", body["error"])

	cookie := findCookie(w.Result().Cookies(), auth.CartCookieName)
	assert.Nil(t, cookie, "failed add must not set the cart cookie")
}

func TestCartHandler_AddItem_InvalidQuantity(t *testing.T) {
	handler := newTestCartHandler(&mockCartService{})

	payload, _ := json.Marshal(map[string]any{"productId": "prod1", "quantity": 0})
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	handler.AddItem(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartHandler_UpdateQuantity_NoCookieIsNoop(t *testing.T) {
	called := false
	svc := &mockCartService{
		UpdateQuantityFunc: func(ctx context.Context, cartID, itemID string, quantity int) error {
			called = true
			return nil
		},
	}
	handler := newTestCartHandler(svc)

	payload, _ := json.Marshal(map[string]any{"itemId": "line1", "quantity": 3})
	req := httptest.NewRequest(http.MethodPut, "/cart", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	handler.UpdateQuantity(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called)
}

func TestCartHandler_UpdateQuantity_ZeroAllowed(t *testing.T) {
	var gotQuantity int
	svc := &mockCartService{
		UpdateQuantityFunc: func(ctx context.Context, cartID, itemID string, quantity int) error {
			gotQuantity = quantity
			return nil
		},
	}
	handler := newTestCartHandler(svc)

	// quantity 0 means remove; it must pass validation
	payload, _ := json.Marshal(map[string]any{"itemId": "line1", "quantity": 0})
	req := withCartCookie(httptest.NewRequest(http.MethodPut, "/cart", bytes.NewReader(payload)), "cart-abc")
	w := httptest.NewRecorder()
	handler.UpdateQuantity(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, gotQuantity)
}

func TestCartHandler_RemoveItem_RequiresItemID(t *testing.T) {
	handler := newTestCartHandler(&mockCartService{})

	req := withCartCookie(httptest.NewRequest(http.MethodDelete, "/cart", nil), "cart-abc")
	w := httptest.NewRecorder()
	handler.RemoveItem(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartHandler_RemoveItem_ReportsCartDeleted(t *testing.T) {
	svc := &mockCartService{
		RemoveItemFunc: func(ctx context.Context, cartID, itemID string) (cart.RemoveResult, error) {
			assert.Equal(t, "cart-abc", cartID)
			assert.Equal(t, "line1", itemID)
			return cart.RemoveResult{ItemsRemaining: 0, CartDeleted: true}, nil
		},
	}
	handler := newTestCartHandler(svc)

	req := withCartCookie(httptest.NewRequest(http.MethodDelete, "/cart?itemId=line1", nil), "cart-abc")
	w := httptest.NewRecorder()
	handler.RemoveItem(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["cartDeleted"])
	assert.Equal(t, float64(0), body["itemsRemaining"])
}

func TestCartHandler_ClearCart(t *testing.T) {
	cleared := false
	svc := &mockCartService{
		ClearFunc: func(ctx context.Context, cartID string) error {
			cleared = true
			return nil
		},
	}
	handler := newTestCartHandler(svc)

	req := withCartCookie(httptest.NewRequest(http.MethodDelete, "/cart/items", nil), "cart-abc")
	w := httptest.NewRecorder()
	handler.ClearCart(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, cleared)
}

func TestCartHandler_MergeCart(t *testing.T) {
	var gotDst, gotSrc string
	svc := &mockCartService{
		MergeFunc: func(ctx context.Context, dstID, srcID string) error {
			gotDst, gotSrc = dstID, srcID
			return nil
		},
	}
	handler := newTestCartHandler(svc)

	payload, _ := json.Marshal(map[string]string{"sourceCartId": "old-cart"})
	req := withCartCookie(httptest.NewRequest(http.MethodPost, "/cart/merge", bytes.NewReader(payload)), "cart-abc")
	w := httptest.NewRecorder()
	handler.MergeCart(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cart-abc", gotDst)
	assert.Equal(t, "old-cart", gotSrc)
}

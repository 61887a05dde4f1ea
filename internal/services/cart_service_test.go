package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/lamarea/storefront/internal/cart"
	"github.com/lamarea/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCartService(store cart.Store, catalog ProductCatalog) *CartService {
	return NewCartService(store, catalog, slog.Default())
}

func TestCartService_GetCart_Enrichment(t *testing.T) {
	stored := []models.CartItem{
		{ID: "line1", ProductID: "prod1", Quantity: 2, AddedAt: time.Now()},
		{ID: "line2", ProductID: "prod2", Quantity: 1, AddedAt: time.Now()},
	}
	store := &MockCartStore{
		ItemsFunc: func(ctx context.Context, cartID string) ([]models.CartItem, error) {
			return stored, nil
		},
	}
	catalog := &MockProductCatalog{
		GetByIDsFunc: func(ctx context.Context, ids []string) (map[string]*models.Product, error) {
			return map[string]*models.Product{
				"prod1": NewTestProduct("prod1", "Yellowfin Tuna", 2499),
				"prod2": NewTestProduct("prod2", "Atlantic Salmon", 1899),
			}, nil
		},
	}

	svc := newTestCartService(store, catalog)
	items, err := svc.GetCart(context.Background(), "cart1")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Yellowfin Tuna", items[0].Name)
	assert.Equal(t, int64(2499), items[0].PriceCents)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCartService_GetCart_DropsUnresolvedProducts(t *testing.T) {
	stored := []models.CartItem{
		{ID: "line1", ProductID: "prod1", Quantity: 2},
		{ID: "line2", ProductID: "deleted", Quantity: 1},
	}
	cleared := false
	store := &MockCartStore{
		ItemsFunc: func(ctx context.Context, cartID string) ([]models.CartItem, error) {
			return stored, nil
		},
		RemoveItemFunc: func(ctx context.Context, cartID, itemID string) (cart.RemoveResult, error) {
			cleared = true
			return cart.RemoveResult{}, nil
		},
	}
	catalog := &MockProductCatalog{
		GetByIDsFunc: func(ctx context.Context, ids []string) (map[string]*models.Product, error) {
			return map[string]*models.Product{
				"prod1": NewTestProduct("prod1", "Yellowfin Tuna", 2499),
			}, nil
		},
	}

	svc := newTestCartService(store, catalog)
	items, err := svc.GetCart(context.Background(), "cart1")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "prod1", items[0].ProductID)
	// Read-time filter only: the stored line is not deleted
	assert.False(t, cleared)
}

func TestCartService_GetCart_Empty(t *testing.T) {
	store := &MockCartStore{}
	catalog := &MockProductCatalog{}

	svc := newTestCartService(store, catalog)
	items, err := svc.GetCart(context.Background(), "no-such-cart")

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items, "empty cart serializes as [], not null")
}

func TestCartService_AddItem_ValidatesProduct(t *testing.T) {
	added := false
	store := &MockCartStore{
		AddItemFunc: func(ctx context.Context, cartID, productID string, quantity int) error {
			added = true
			return nil
		},
	}
	catalog := &MockProductCatalog{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Product, error) {
			if id == "prod1" {
				return NewTestProduct("prod1", "Yellowfin Tuna", 2499), nil
			}
			return nil, models.ErrNotFound
		},
	}

	svc := newTestCartService(store, catalog)

	err := svc.AddItem(context.Background(), "cart1", "prod1", 2)
	require.NoError(t, err)
	assert.True(t, added)

	err = svc.AddItem(context.Background(), "cart1", "ghost", 1)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestCartService_RemoveItem_PropagatesResult(t *testing.T) {
	store := &MockCartStore{
		RemoveItemFunc: func(ctx context.Context, cartID, itemID string) (cart.RemoveResult, error) {
			return cart.RemoveResult{ItemsRemaining: 0, CartDeleted: true}, nil
		},
	}

	svc := newTestCartService(store, &MockProductCatalog{})
	result, err := svc.RemoveItem(context.Background(), "cart1", "line1")

	require.NoError(t, err)
	assert.True(t, result.CartDeleted)
	assert.Equal(t, 0, result.ItemsRemaining)
}

func TestCartService_Merge_Delegates(t *testing.T) {
	var gotDst, gotSrc string
	store := &MockCartStore{
		MergeFunc: func(ctx context.Context, dstID, srcID string) error {
			gotDst, gotSrc = dstID, srcID
			return nil
		},
	}

	svc := newTestCartService(store, &MockProductCatalog{})
	err := svc.Merge(context.Background(), "dst", "src")

	require.NoError(t, err)
	assert.Equal(t, "dst", gotDst)
	assert.Equal(t, "src", gotSrc)
}

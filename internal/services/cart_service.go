package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lamarea/storefront/internal/cart"
	"github.com/lamarea/storefront/internal/models"
)

// ProductCatalog defines the catalog lookups the cart needs
type ProductCatalog interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error)
}

// CartService maintains per-session product/quantity pairs, independent of
// user authentication, addressed by the opaque cart id from the cookie.
type CartService struct {
	store    cart.Store
	products ProductCatalog
	logger   *slog.Logger
}

func NewCartService(store cart.Store, products ProductCatalog, logger *slog.Logger) *CartService {
	return &CartService{
		store:    store,
		products: products,
		logger:   logger,
	}
}

// GetCart returns the cart's lines joined with live catalog data. Lines whose
// product no longer resolves are omitted from the view; the stored lines are
// untouched (a read-time filter only).
func (s *CartService) GetCart(ctx context.Context, cartID string) ([]models.EnrichedCartItem, error) {
	items, err := s.store.Items(ctx, cartID)
	if err != nil {
		s.logger.Error("failed to read cart", slog.String("cart_id", cartID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	byID, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to enrich cart", slog.String("cart_id", cartID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	enriched := make([]models.EnrichedCartItem, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue // product deleted out-of-band
		}
		enriched = append(enriched, models.EnrichedCartItem{
			CartItem:   item,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Unit:       p.Unit,
			ImageURL:   p.ImageURL,
		})
	}

	return enriched, nil
}

// AddItem validates the product exists, then upserts the line (one line per
// product; quantities accumulate).
func (s *CartService) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	_, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrProductNotFound
		}
		s.logger.Error("failed to look up product", slog.String("product_id", productID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.store.AddItem(ctx, cartID, productID, quantity); err != nil {
		s.logger.Error("failed to add cart item", slog.String("cart_id", cartID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// UpdateQuantity sets a line's quantity; zero or negative removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if err := s.store.UpdateQuantity(ctx, cartID, itemID, quantity); err != nil {
		s.logger.Error("failed to update cart item", slog.String("cart_id", cartID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// RemoveItem removes a line; removing the last line deletes the cart entry.
func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID string) (cart.RemoveResult, error) {
	result, err := s.store.RemoveItem(ctx, cartID, itemID)
	if err != nil {
		s.logger.Error("failed to remove cart item", slog.String("cart_id", cartID), slog.Any("error", err))
		return cart.RemoveResult{}, models.ErrInternalServer
	}

	return result, nil
}

// Merge folds the source cart into the destination and deletes the source.
func (s *CartService) Merge(ctx context.Context, dstID, srcID string) error {
	if err := s.store.Merge(ctx, dstID, srcID); err != nil {
		s.logger.Error("failed to merge carts",
			slog.String("dst_cart_id", dstID), slog.String("src_cart_id", srcID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// Clear drops every line in one atomic store call.
func (s *CartService) Clear(ctx context.Context, cartID string) error {
	if err := s.store.Clear(ctx, cartID); err != nil {
		s.logger.Error("failed to clear cart", slog.String("cart_id", cartID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

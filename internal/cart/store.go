// Package cart provides the session cart store: an opaque cart id (carried in
// a cookie) mapped to a set of product/quantity lines. Backends make every
// operation atomic per cart, so concurrent requests for the same cart cannot
// lose updates.
package cart

import (
	"context"
	"time"

	"github.com/lamarea/storefront/internal/models"
)

// RemoveResult reports the outcome of a removal.
type RemoveResult struct {
	ItemsRemaining int
	CartDeleted    bool // the cart entry itself was deleted (last item removed)
}

// Store is the injected cart storage abstraction. Methods are the domain
// operations rather than raw get/put so each backend can guarantee atomicity.
type Store interface {
	// Items returns the raw stored lines for the cart; empty slice if none.
	Items(ctx context.Context, cartID string) ([]models.CartItem, error)

	// AddItem appends a line for productID, or increments the quantity of an
	// existing line for the same product. At most one line per product.
	AddItem(ctx context.Context, cartID, productID string, quantity int) error

	// UpdateQuantity sets a line's quantity in place. quantity <= 0 removes
	// the line. Unknown item ids are a no-op.
	UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error

	// RemoveItem removes the matching line. Removing the last line deletes
	// the cart entry entirely.
	RemoveItem(ctx context.Context, cartID, itemID string) (RemoveResult, error)

	// Merge folds srcID's lines into dstID (quantities summed per product)
	// and deletes srcID.
	Merge(ctx context.Context, dstID, srcID string) error

	// Clear deletes the whole cart in one operation.
	Clear(ctx context.Context, cartID string) error

	// PruneIdle drops carts untouched since the cutoff. Backends with native
	// expiry may treat this as a no-op.
	PruneIdle(ctx context.Context, cutoff time.Time) (int, error)
}

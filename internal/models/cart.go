package models

import "time"

// CartItem is a stored cart line. At most one line exists per
// (cart, product) pair; adding an existing product increments Quantity.
type CartItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// EnrichedCartItem is a cart line joined at read time with current catalog
// data. It is never stored; lines whose product no longer resolves are
// dropped from the view.
type EnrichedCartItem struct {
	CartItem
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Unit       string `json:"unit"`
	ImageURL   string `json:"imageUrl"`
}

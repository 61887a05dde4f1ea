package models

import "time"

type Product struct {
	ID          string
	Name        string
	Description string
	Species     string // e.g. "Salmo salar"
	Origin      string // catch or farm region
	Unit        string // "kg", "dozen", "piece"
	PriceCents  int64
	ImageURL    string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package models

import "time"

// Pack is a numbered, typed bundle of products offered for exclusive
// assignment. OwnerID is nil until the pack is claimed; once set it never
// changes.
type Pack struct {
	PackID    string     `json:"pack_id"`
	PackNo    string     `json:"pack_no"`
	PackType  string     `json:"pack_type"`
	OwnerID   *string    `json:"owner_id,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}

// PackItem is one product line inside a pack, enriched with the product's
// display fields when listed.
type PackItem struct {
	ItemID       string `json:"item_id"`
	PackID       string `json:"pack_id"`
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	Free         bool   `json:"free"`
	ProductName  string `json:"product_name"`
	PriceCents   int64  `json:"price_cents"`
	ImageURL     string `json:"image_url,omitempty"`
	OrderURL     string `json:"order_url,omitempty"`
}

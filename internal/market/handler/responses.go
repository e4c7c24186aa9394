package handler

import (
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/market/models"
)

// ListingResponse is the HTTP shape of a listing.
type ListingResponse struct {
	ID        string     `json:"id"`
	TokenID   string     `json:"token_id"`
	Seller    string     `json:"seller"`
	Price     float64    `json:"price"`
	Currency  string     `json:"currency"`
	Status    string     `json:"status"`
	Featured  bool       `json:"featured"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	Buyer     string     `json:"buyer,omitempty"`
	SoldAt    *time.Time `json:"sold_at,omitempty"`
}

// FromListing converts a domain listing to its HTTP shape.
func FromListing(listing *models.Listing) *ListingResponse {
	resp := &ListingResponse{
		ID:        listing.ID.String(),
		TokenID:   string(listing.TokenID),
		Seller:    string(listing.Seller),
		Price:     listing.Price,
		Currency:  listing.Currency,
		Status:    string(listing.Status),
		Featured:  listing.Featured,
		CreatedAt: listing.CreatedAt,
		ExpiresAt: listing.ExpiresAt,
		Buyer:     string(listing.Buyer),
	}
	if !listing.SoldAt.IsZero() {
		soldAt := listing.SoldAt
		resp.SoldAt = &soldAt
	}
	return resp
}

// FromListings converts a listing slice, never returning a null JSON array.
func FromListings(listings []*models.Listing) []*ListingResponse {
	out := make([]*ListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, FromListing(l))
	}
	return out
}

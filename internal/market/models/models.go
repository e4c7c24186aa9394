// Package models defines marketplace listings.
package models

import (
	"time"

	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

// ListingStatus is the listing lifecycle. Active is the only state a listing
// can be bought or cancelled from.
type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
	ListingExpired   ListingStatus = "expired"
)

// Listing offers a credential token for resale.
type Listing struct {
	ID       id.ListingID
	TokenID  id.TokenID
	Seller   id.Address
	Price    float64
	Currency string
	Status   ListingStatus
	// Featured is derived from price at creation, never set by hand.
	Featured  bool
	CreatedAt time.Time
	ExpiresAt time.Time
	// Buyer is set when the listing sells.
	Buyer  id.Address
	SoldAt time.Time
}

// Expired reports whether the listing's window has closed at the given time.
func (l *Listing) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

func (l *Listing) Validate() error {
	if l.TokenID == "" {
		return dErrors.New(dErrors.CodeValidation, "listing token id is required")
	}
	if l.Seller == "" {
		return dErrors.New(dErrors.CodeValidation, "listing seller is required")
	}
	if l.Price <= 0 {
		return dErrors.New(dErrors.CodeValidation, "listing price must be positive")
	}
	if l.Currency == "" {
		return dErrors.New(dErrors.CodeValidation, "listing currency is required")
	}
	return nil
}

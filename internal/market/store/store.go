// Package store persists marketplace listings.
package store

import (
	"context"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/market/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
)

// Store is the listing persistence contract.
//
// ClaimSold is the purchase linchpin: it must atomically move exactly one
// caller from active to sold, treating an elapsed ExpiresAt as not active.
// Losers get sentinel.ErrInvalidState. Unknown ids are sentinel.ErrNotFound,
// duplicate creates sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, listing *models.Listing) error
	Find(ctx context.Context, listingID id.ListingID) (*models.Listing, error)
	// ListActive returns listings still open at the given time, newest first.
	ListActive(ctx context.Context, now time.Time) ([]*models.Listing, error)

	ClaimSold(ctx context.Context, listingID id.ListingID, buyer id.Address, now time.Time) error
	// Reopen reverts a claimed listing to active when the token transfer
	// behind it could not complete.
	Reopen(ctx context.Context, listingID id.ListingID) error
	Cancel(ctx context.Context, listingID id.ListingID, now time.Time) error
	MarkExpired(ctx context.Context, listingID id.ListingID, now time.Time) error
}

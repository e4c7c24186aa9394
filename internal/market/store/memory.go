package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/market/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// InMemory keeps listings in a map. Expiry is applied lazily: any read or
// claim that observes an elapsed window first moves the listing to expired
// under the same lock.
type InMemory struct {
	mu       sync.RWMutex
	listings map[id.ListingID]*models.Listing
}

func NewInMemory() *InMemory {
	return &InMemory{listings: make(map[id.ListingID]*models.Listing)}
}

func copyListing(l *models.Listing) *models.Listing {
	out := *l
	return &out
}

func (s *InMemory) Create(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[listing.ID]; ok {
		return fmt.Errorf("listing %s: %w", listing.ID, sentinel.ErrConflict)
	}
	s.listings[listing.ID] = copyListing(listing)
	return nil
}

func (s *InMemory) Find(_ context.Context, listingID id.ListingID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", listingID, sentinel.ErrNotFound)
	}
	return copyListing(listing), nil
}

func (s *InMemory) ListActive(_ context.Context, now time.Time) ([]*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Listing
	for _, listing := range s.listings {
		s.expireLocked(listing, now)
		if listing.Status == models.ListingActive {
			out = append(out, copyListing(listing))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) ClaimSold(_ context.Context, listingID id.ListingID, buyer id.Address, now time.Time) error {
	return s.claim(listingID, now, func(listing *models.Listing) {
		listing.Status = models.ListingSold
		listing.Buyer = buyer
		listing.SoldAt = now
	})
}

func (s *InMemory) Reopen(_ context.Context, listingID id.ListingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return fmt.Errorf("listing %s: %w", listingID, sentinel.ErrNotFound)
	}
	if listing.Status != models.ListingSold {
		return fmt.Errorf("listing %s is %s: %w", listingID, listing.Status, sentinel.ErrInvalidState)
	}
	listing.Status = models.ListingActive
	listing.Buyer = ""
	listing.SoldAt = time.Time{}
	return nil
}

func (s *InMemory) Cancel(_ context.Context, listingID id.ListingID, now time.Time) error {
	return s.claim(listingID, now, func(listing *models.Listing) {
		listing.Status = models.ListingCancelled
	})
}

func (s *InMemory) MarkExpired(_ context.Context, listingID id.ListingID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return fmt.Errorf("listing %s: %w", listingID, sentinel.ErrNotFound)
	}
	if listing.Status != models.ListingActive {
		return fmt.Errorf("listing %s is %s: %w", listingID, listing.Status, sentinel.ErrInvalidState)
	}
	listing.Status = models.ListingExpired
	return nil
}

// claim applies a transition that requires the listing to be active and
// unexpired at the given time.
func (s *InMemory) claim(listingID id.ListingID, now time.Time, apply func(*models.Listing)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return fmt.Errorf("listing %s: %w", listingID, sentinel.ErrNotFound)
	}
	s.expireLocked(listing, now)
	if listing.Status != models.ListingActive {
		return fmt.Errorf("listing %s is %s: %w", listingID, listing.Status, sentinel.ErrInvalidState)
	}
	apply(listing)
	return nil
}

func (s *InMemory) expireLocked(listing *models.Listing, now time.Time) {
	if listing.Status == models.ListingActive && listing.Expired(now) {
		listing.Status = models.ListingExpired
	}
}

package store_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/bidurkhatri/veridity-ledger/internal/market/models"
	"github.com/bidurkhatri/veridity-ledger/internal/market/store"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

type MemorySuite struct {
	suite.Suite
	store *store.InMemory
	now   time.Time
}

func (s *MemorySuite) SetupTest() {
	s.store = store.NewInMemory()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *MemorySuite) listing(ttl time.Duration) *models.Listing {
	return &models.Listing{
		ID:        id.NewListingID(),
		TokenID:   id.TokenID(strings.Repeat("a", 64)),
		Seller:    "0xseller",
		Price:     0.5,
		Currency:  "ETH",
		Status:    models.ListingActive,
		CreatedAt: s.now,
		ExpiresAt: s.now.Add(ttl),
	}
}

func (s *MemorySuite) TestCreateFindRoundTrip() {
	ctx := context.Background()
	listing := s.listing(time.Hour)
	s.Require().NoError(s.store.Create(ctx, listing))

	got, err := s.store.Find(ctx, listing.ID)
	s.Require().NoError(err)
	s.Equal(listing.ID, got.ID)

	s.ErrorIs(s.store.Create(ctx, listing), sentinel.ErrConflict)
}

func (s *MemorySuite) TestClaimSoldIsExclusive() {
	ctx := context.Background()
	listing := s.listing(time.Hour)
	s.Require().NoError(s.store.Create(ctx, listing))

	const buyers = 20
	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.ClaimSold(ctx, listing.ID, "0xbuyer", s.now)
		}()
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		if err == nil {
			wins++
		} else if s.ErrorIs(err, sentinel.ErrInvalidState) {
			conflicts++
		}
	}
	s.Equal(1, wins)
	s.Equal(buyers-1, conflicts)
}

func (s *MemorySuite) TestClaimSoldTreatsElapsedWindowAsExpired() {
	ctx := context.Background()
	listing := s.listing(time.Minute)
	s.Require().NoError(s.store.Create(ctx, listing))

	err := s.store.ClaimSold(ctx, listing.ID, "0xbuyer", s.now.Add(2*time.Minute))
	s.ErrorIs(err, sentinel.ErrInvalidState)

	got, findErr := s.store.Find(ctx, listing.ID)
	s.Require().NoError(findErr)
	s.Equal(models.ListingExpired, got.Status)
}

func (s *MemorySuite) TestListActiveFiltersExpired() {
	ctx := context.Background()
	open := s.listing(time.Hour)
	s.Require().NoError(s.store.Create(ctx, open))

	stale := s.listing(time.Minute)
	s.Require().NoError(s.store.Create(ctx, stale))

	active, err := s.store.ListActive(ctx, s.now.Add(30*time.Minute))
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(open.ID, active[0].ID)
}

func (s *MemorySuite) TestReopenRevertsSoldOnly() {
	ctx := context.Background()
	listing := s.listing(time.Hour)
	s.Require().NoError(s.store.Create(ctx, listing))

	s.ErrorIs(s.store.Reopen(ctx, listing.ID), sentinel.ErrInvalidState)

	s.Require().NoError(s.store.ClaimSold(ctx, listing.ID, "0xbuyer", s.now))
	s.Require().NoError(s.store.Reopen(ctx, listing.ID))

	got, err := s.store.Find(ctx, listing.ID)
	s.Require().NoError(err)
	s.Equal(models.ListingActive, got.Status)
	s.Empty(got.Buyer)
}

func (s *MemorySuite) TestCancel() {
	ctx := context.Background()
	listing := s.listing(time.Hour)
	s.Require().NoError(s.store.Create(ctx, listing))

	s.Require().NoError(s.store.Cancel(ctx, listing.ID, s.now))
	s.ErrorIs(s.store.ClaimSold(ctx, listing.ID, "0xbuyer", s.now), sentinel.ErrInvalidState)
}

func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemorySuite))
}

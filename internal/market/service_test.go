package market_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	credmodels "github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	credstore "github.com/bidurkhatri/veridity-ledger/internal/credential/store"
	ledgermodels "github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	"github.com/bidurkhatri/veridity-ledger/internal/market"
	"github.com/bidurkhatri/veridity-ledger/internal/market/models"
	"github.com/bidurkhatri/veridity-ledger/internal/market/store"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// tokensStub backs the Tokens interface with the real in-memory token store,
// so transfer races behave like production.
type tokensStub struct {
	store *credstore.InMemory
}

func (t tokensStub) Get(ctx context.Context, tokenID id.TokenID) (*credmodels.ProofToken, error) {
	token, err := t.store.Find(ctx, tokenID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "token not found")
	}
	return token, err
}

func (t tokensStub) Transfer(ctx context.Context, tokenID id.TokenID, record credmodels.TransferRecord) error {
	if err := t.store.Transfer(ctx, tokenID, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeConflict, "token not transferable")
	}
	return nil
}

type recorderStub struct {
	mu  sync.Mutex
	txs []*ledgermodels.Transaction
}

func (r *recorderStub) Record(_ context.Context, tx *ledgermodels.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, tx)
	return nil
}

type MarketSuite struct {
	suite.Suite

	tokens   *credstore.InMemory
	listings *store.InMemory
	recorder *recorderStub
	svc      *market.Service
	tokenID  id.TokenID
}

const (
	seller = id.Address("0xseller00000000000000000000000000000001")
	buyer  = id.Address("0xbuyer000000000000000000000000000000002")
)

func (s *MarketSuite) SetupTest() {
	s.tokens = credstore.NewInMemory()
	s.listings = store.NewInMemory()
	s.recorder = &recorderStub{}
	s.svc = market.New(s.listings, tokensStub{store: s.tokens}, s.recorder,
		market.WithFeaturedThreshold(1.0))

	s.tokenID = id.TokenID(strings.Repeat("a", 64))
	s.Require().NoError(s.tokens.Create(context.Background(), &credmodels.ProofToken{
		ID:        s.tokenID,
		NetworkID: "ethereum",
		IssuerID:  "cisco-systems",
		Holder:    seller,
		Status:    credmodels.TokenActive,
		MintedAt:  time.Now(),
	}))
}

func (s *MarketSuite) list() *models.Listing {
	listing, err := s.svc.List(context.Background(), s.tokenID, seller, 0.5, "ETH", 24*time.Hour)
	s.Require().NoError(err)
	return listing
}

func (s *MarketSuite) TestListRequiresOwnership() {
	_, err := s.svc.List(context.Background(), s.tokenID, buyer, 0.5, "ETH", time.Hour)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *MarketSuite) TestListUnknownToken() {
	_, err := s.svc.List(context.Background(), id.TokenID(strings.Repeat("f", 64)), seller, 0.5, "ETH", time.Hour)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *MarketSuite) TestFeaturedIsPriceDerived() {
	cheap := s.list()
	s.False(cheap.Featured)

	s.Require().NoError(s.svc.Cancel(context.Background(), cheap.ID, seller))
	pricey, err := s.svc.List(context.Background(), s.tokenID, seller, 2.5, "ETH", time.Hour)
	s.Require().NoError(err)
	s.True(pricey.Featured)
}

func (s *MarketSuite) TestPurchase() {
	listing := s.list()

	sold, err := s.svc.Purchase(context.Background(), listing.ID, buyer)
	s.Require().NoError(err)
	s.Equal(models.ListingSold, sold.Status)
	s.Equal(buyer, sold.Buyer)

	token, err := s.tokens.Find(context.Background(), s.tokenID)
	s.Require().NoError(err)
	s.Equal(credmodels.TokenTransferred, token.Status)
	s.Equal(buyer, token.CurrentOwner())
	s.Require().Len(token.TransferHistory, 1)
	s.Equal(0.5, token.TransferHistory[0].Price)

	s.Require().Len(s.recorder.txs, 1)
	s.Equal(ledgermodels.TxTransfer, s.recorder.txs[0].Type)
	s.Equal(0.5, s.recorder.txs[0].Value)
}

func (s *MarketSuite) TestPurchaseOwnListing() {
	listing := s.list()
	_, err := s.svc.Purchase(context.Background(), listing.ID, seller)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *MarketSuite) TestConcurrentPurchaseExactlyOneWins() {
	listing := s.list()

	const buyers = 20
	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			addr := id.Address("0xbuyer" + strings.Repeat("b", 10) + string(rune('a'+n)))
			_, err := s.svc.Purchase(context.Background(), listing.ID, addr)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case dErrors.HasCode(err, dErrors.CodeConflict):
			conflicts++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, wins)
	s.Equal(buyers-1, conflicts)

	token, err := s.tokens.Find(context.Background(), s.tokenID)
	s.Require().NoError(err)
	s.Len(token.TransferHistory, 1)
}

func (s *MarketSuite) TestPurchaseExpiredListing() {
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := market.New(s.listings, tokensStub{store: s.tokens}, s.recorder,
		market.WithClock(func() time.Time { return past }))
	listing, err := svc.List(context.Background(), s.tokenID, seller, 0.5, "ETH", time.Minute)
	s.Require().NoError(err)

	// Real clock is long past the listing window.
	_, err = s.svc.Purchase(context.Background(), listing.ID, buyer)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	got, err := s.svc.Get(context.Background(), listing.ID)
	s.Require().NoError(err)
	s.Equal(models.ListingExpired, got.Status)
}

func (s *MarketSuite) TestPurchaseReopensListingWhenTransferFails() {
	listing := s.list()

	// The token leaves active between listing and purchase.
	s.Require().NoError(s.tokens.Revoke(context.Background(), s.tokenID))

	_, err := s.svc.Purchase(context.Background(), listing.ID, buyer)
	s.Require().Error(err)

	got, findErr := s.svc.Get(context.Background(), listing.ID)
	s.Require().NoError(findErr)
	s.Equal(models.ListingActive, got.Status)
	s.Empty(s.recorder.txs)
}

func (s *MarketSuite) TestCancelOnlyBySeller() {
	listing := s.list()

	err := s.svc.Cancel(context.Background(), listing.ID, buyer)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.Require().NoError(s.svc.Cancel(context.Background(), listing.ID, seller))

	_, err = s.svc.Purchase(context.Background(), listing.ID, buyer)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *MarketSuite) TestBrowseReturnsActiveOnly() {
	listing := s.list()

	open, err := s.svc.Browse(context.Background())
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.Equal(listing.ID, open[0].ID)

	s.Require().NoError(s.svc.Cancel(context.Background(), listing.ID, seller))
	open, err = s.svc.Browse(context.Background())
	s.Require().NoError(err)
	s.Empty(open)
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketSuite))
}

// Package market runs the secondary marketplace for credential resale.
package market

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	credmodels "github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	ledgermodels "github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	"github.com/bidurkhatri/veridity-ledger/internal/market/models"
	"github.com/bidurkhatri/veridity-ledger/internal/market/store"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// Tokens is the credential surface the marketplace needs: ownership reads
// and the transfer that settles a sale.
type Tokens interface {
	Get(ctx context.Context, tokenID id.TokenID) (*credmodels.ProofToken, error)
	Transfer(ctx context.Context, tokenID id.TokenID, record credmodels.TransferRecord) error
}

// TxRecorder appends transactions to the local ledger mirror.
type TxRecorder interface {
	Record(ctx context.Context, tx *ledgermodels.Transaction) error
}

// Publisher emits lifecycle events.
type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service lists, sells, and cancels credential listings.
type Service struct {
	listings store.Store
	tokens   Tokens
	txs      TxRecorder

	// featuredThreshold is the price at or above which a listing is featured.
	featuredThreshold float64
	publisher         Publisher
	logger            *slog.Logger
	now               func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithFeaturedThreshold sets the price that makes a listing featured.
func WithFeaturedThreshold(price float64) Option {
	return func(s *Service) { s.featuredThreshold = price }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(listings store.Store, tokens Tokens, txs TxRecorder, opts ...Option) *Service {
	s := &Service{
		listings:          listings,
		tokens:            tokens,
		txs:               txs,
		featuredThreshold: 1.0,
		logger:            slog.Default(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List offers a token for sale. Only the current owner may list, and the
// token must still be active.
func (s *Service) List(ctx context.Context, tokenID id.TokenID, seller id.Address, price float64, currency string, duration time.Duration) (*models.Listing, error) {
	token, err := s.tokens.Get(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if token.CurrentOwner() != seller {
		return nil, dErrors.Newf(dErrors.CodeUnauthorized, "%s does not own token %s", seller, tokenID)
	}
	if token.Status != credmodels.TokenActive {
		return nil, dErrors.Newf(dErrors.CodeConflict, "token %s is %s", tokenID, token.Status)
	}
	if duration <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "listing duration must be positive")
	}

	now := s.now()
	listing := &models.Listing{
		ID:        id.NewListingID(),
		TokenID:   tokenID,
		Seller:    seller,
		Price:     price,
		Currency:  currency,
		Status:    models.ListingActive,
		Featured:  price >= s.featuredThreshold,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}
	if err := listing.Validate(); err != nil {
		return nil, err
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, translate(err)
	}

	s.logger.InfoContext(ctx, "listing created",
		"listing_id", listing.ID, "token_id", tokenID, "price", price, "featured", listing.Featured)
	s.emit(ctx, events.EventListingCreated, listing.ID.String(), map[string]string{
		"token_id": string(tokenID),
		"price":    strconv.FormatFloat(price, 'f', -1, 64),
	})
	return listing, nil
}

// Purchase settles a sale: claim the listing, transfer the token, record the
// transaction. The listing claim is the serialization point; of two
// concurrent buyers exactly one gets past it.
func (s *Service) Purchase(ctx context.Context, listingID id.ListingID, buyer id.Address) (*models.Listing, error) {
	if buyer == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "buyer address is required")
	}
	listing, err := s.listings.Find(ctx, listingID)
	if err != nil {
		return nil, translate(err)
	}
	if buyer == listing.Seller {
		return nil, dErrors.New(dErrors.CodeValidation, "seller cannot buy their own listing")
	}
	token, err := s.tokens.Get(ctx, listing.TokenID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.listings.ClaimSold(ctx, listingID, buyer, now); err != nil {
		return nil, translate(err)
	}

	record := credmodels.TransferRecord{
		From:      listing.Seller,
		To:        buyer,
		Price:     listing.Price,
		Currency:  listing.Currency,
		Timestamp: now,
	}
	if err := s.tokens.Transfer(ctx, listing.TokenID, record); err != nil {
		// The token moved or was revoked under the listing. Give the claim
		// back so the seller can cancel or relist.
		if reopenErr := s.listings.Reopen(ctx, listingID); reopenErr != nil {
			s.logger.ErrorContext(ctx, "reopen listing after failed transfer",
				"error", reopenErr, "listing_id", listingID)
		}
		return nil, err
	}

	tx := &ledgermodels.Transaction{
		ID:        id.NewTxID(),
		NetworkID: token.NetworkID,
		Type:      ledgermodels.TxTransfer,
		From:      listing.Seller,
		To:        buyer,
		Value:     listing.Price,
		Timestamp: now,
		Status:    ledgermodels.TxPending,
		Payload: map[string]string{
			"token_id":   string(listing.TokenID),
			"listing_id": listingID.String(),
		},
	}
	if err := s.txs.Record(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "record transfer transaction", "error", err, "listing_id", listingID)
	}

	sold := *listing
	sold.Status = models.ListingSold
	sold.Buyer = buyer
	sold.SoldAt = now

	s.logger.InfoContext(ctx, "listing sold",
		"listing_id", listingID, "token_id", listing.TokenID, "buyer", buyer)
	s.emit(ctx, events.EventListingSold, listingID.String(), map[string]string{
		"token_id": string(listing.TokenID),
		"buyer":    string(buyer),
	})
	return &sold, nil
}

// Cancel withdraws a listing. Only the original seller may cancel.
func (s *Service) Cancel(ctx context.Context, listingID id.ListingID, requester id.Address) error {
	listing, err := s.listings.Find(ctx, listingID)
	if err != nil {
		return translate(err)
	}
	if listing.Seller != requester {
		return dErrors.Newf(dErrors.CodeUnauthorized, "%s did not create listing %s", requester, listingID)
	}
	if err := s.listings.Cancel(ctx, listingID, s.now()); err != nil {
		return translate(err)
	}
	s.logger.InfoContext(ctx, "listing cancelled", "listing_id", listingID)
	s.emit(ctx, events.EventListingCancelled, listingID.String(), nil)
	return nil
}

// Browse returns the open listings.
func (s *Service) Browse(ctx context.Context) ([]*models.Listing, error) {
	listings, err := s.listings.ListActive(ctx, s.now())
	return listings, translate(err)
}

// Get returns a listing by id.
func (s *Service) Get(ctx context.Context, listingID id.ListingID) (*models.Listing, error) {
	listing, err := s.listings.Find(ctx, listingID)
	return listing, translate(err)
}

func (s *Service) emit(ctx context.Context, name events.Name, subject string, attrs map[string]string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, events.Event{Name: name, Subject: subject, Attributes: attrs}); err != nil {
		s.logger.WarnContext(ctx, "event emit failed", "event", name, "error", err)
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "listing not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, "listing not active")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "listing already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "listing store failure")
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/market/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/tx"
)

// Postgres persists listings. ClaimSold and Cancel are single conditional
// UPDATEs, so the first committer wins regardless of process count.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the table this store expects.
const Schema = `
CREATE TABLE IF NOT EXISTS listings (
    id         UUID PRIMARY KEY,
    token_id   TEXT NOT NULL,
    seller     TEXT NOT NULL,
    price      DOUBLE PRECISION NOT NULL,
    currency   TEXT NOT NULL,
    status     TEXT NOT NULL,
    featured   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    buyer      TEXT NOT NULL DEFAULT '',
    sold_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS listings_active_idx ON listings (expires_at) WHERE status = 'active';
`

func (s *Postgres) Create(ctx context.Context, listing *models.Listing) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO listings (id, token_id, seller, price, currency, status, featured, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING
	`, listing.ID.String(), string(listing.TokenID), string(listing.Seller), listing.Price,
		listing.Currency, string(listing.Status), listing.Featured, listing.CreatedAt, listing.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("listing %s: %w", listing.ID, sentinel.ErrConflict)
	}
	return nil
}

const listingColumns = `id, token_id, seller, price, currency, status, featured, created_at, expires_at, buyer, sold_at`

func (s *Postgres) Find(ctx context.Context, listingID id.ListingID) (*models.Listing, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, listingID.String())
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("listing %s: %w", listingID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return listing, nil
}

func (s *Postgres) ListActive(ctx context.Context, now time.Time) ([]*models.Listing, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE status = 'active' AND expires_at > $1
		ORDER BY created_at DESC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []*models.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, listing)
	}
	return out, rows.Err()
}

func (s *Postgres) ClaimSold(ctx context.Context, listingID id.ListingID, buyer id.Address, now time.Time) error {
	return s.claim(ctx, listingID, now, `
		UPDATE listings SET status = 'sold', buyer = $2, sold_at = $3
		WHERE id = $1 AND status = 'active' AND expires_at > $3
	`, string(buyer), now)
}

func (s *Postgres) Reopen(ctx context.Context, listingID id.ListingID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE listings SET status = 'active', buyer = '', sold_at = NULL
		WHERE id = $1 AND status = 'sold'
	`, listingID.String())
	if err != nil {
		return fmt.Errorf("reopen listing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.diagnose(ctx, listingID)
	}
	return nil
}

func (s *Postgres) Cancel(ctx context.Context, listingID id.ListingID, now time.Time) error {
	return s.claim(ctx, listingID, now, `
		UPDATE listings SET status = 'cancelled'
		WHERE id = $1 AND status = 'active' AND expires_at > $2
	`, now)
}

func (s *Postgres) MarkExpired(ctx context.Context, listingID id.ListingID, now time.Time) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE listings SET status = 'expired' WHERE id = $1 AND status = 'active'`,
		listingID.String())
	if err != nil {
		return fmt.Errorf("expire listing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.diagnose(ctx, listingID)
	}
	return nil
}

func (s *Postgres) claim(ctx context.Context, listingID id.ListingID, now time.Time, query string, args ...any) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, query, append([]any{listingID.String()}, args...)...)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The window may have closed between reads; settle it first so the
		// caller sees expired rather than a stale active.
		if err := s.lazyExpire(ctx, listingID, now); err != nil {
			return err
		}
		return s.diagnose(ctx, listingID)
	}
	return nil
}

func (s *Postgres) lazyExpire(ctx context.Context, listingID id.ListingID, now time.Time) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE listings SET status = 'expired'
		WHERE id = $1 AND status = 'active' AND expires_at <= $2
	`, listingID.String(), now)
	if err != nil {
		return fmt.Errorf("expire listing: %w", err)
	}
	return nil
}

func (s *Postgres) diagnose(ctx context.Context, listingID id.ListingID) error {
	var status string
	err := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT status FROM listings WHERE id = $1`, listingID.String()).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("listing %s: %w", listingID, sentinel.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("inspect listing: %w", err)
	}
	return fmt.Errorf("listing %s is %s: %w", listingID, status, sentinel.ErrInvalidState)
}

func scanListing(row interface{ Scan(...any) error }) (*models.Listing, error) {
	var (
		listing   models.Listing
		listingID string
		tokenID   string
		seller    string
		status    string
		buyer     string
		soldAt    sql.NullTime
	)
	err := row.Scan(&listingID, &tokenID, &seller, &listing.Price, &listing.Currency,
		&status, &listing.Featured, &listing.CreatedAt, &listing.ExpiresAt, &buyer, &soldAt)
	if err != nil {
		return nil, err
	}
	parsed, err := id.ParseListingID(listingID)
	if err != nil {
		return nil, fmt.Errorf("stored listing id: %w", err)
	}
	listing.ID = parsed
	listing.TokenID = id.TokenID(tokenID)
	listing.Seller = id.Address(seller)
	listing.Status = models.ListingStatus(status)
	listing.Buyer = id.Address(buyer)
	if soldAt.Valid {
		listing.SoldAt = soldAt.Time
	}
	return &listing, nil
}

// Package events defines the append-only ledger event trail. Every state
// change a consumer might care about (mints, transfers, revocations, listing
// lifecycle, DID updates, confirmation outcomes) is emitted here so analytics
// and reporting can fan out without reading the stores directly.
package events

import (
	"context"
	"time"
)

// Name identifies a ledger event.
type Name string

const (
	EventTokenMinted      Name = "token_minted"
	EventTokenTransferred Name = "token_transferred"
	EventTokenRevoked     Name = "token_revoked"

	EventListingCreated   Name = "listing_created"
	EventListingSold      Name = "listing_sold"
	EventListingCancelled Name = "listing_cancelled"
	EventListingExpired   Name = "listing_expired"

	EventDIDCreated Name = "did_created"
	EventDIDUpdated Name = "did_updated"

	EventTxConfirmed Name = "tx_confirmed"
	EventTxFailed    Name = "tx_failed"
	EventTxAbandoned Name = "tx_abandoned"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Name      Name
	Timestamp time.Time
	// Subject is the primary entity the event is about: a token id, listing
	// id, DID, or transaction id.
	Subject string
	// Actor is the identity that caused the event, when known: an issuer id,
	// a wallet address, or "system" for poller-driven transitions.
	Actor string
	// Attributes carries small event-specific values (price, currency,
	// network). Values must be printable; no documents or key material.
	Attributes map[string]string
	// RequestID correlates the event with the originating API request.
	RequestID string
}

// Sink persists or forwards events. Implementations must be safe for
// concurrent use.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

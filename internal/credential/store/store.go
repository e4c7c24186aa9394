// Package store persists proof tokens. Two implementations share one
// contract: the in-memory store for tests and single-process runs, and the
// Postgres store for durable deployments.
//
// Error contract:
// - sentinel.ErrNotFound for unknown token ids
// - sentinel.ErrConflict for duplicate ids on Create and for ownership races
//   on Transfer
// - sentinel.ErrInvalidState when the token's status forbids the operation
// - wrapped errors for infrastructure failures
package store

import (
	"context"

	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
)

// Store is the proof token persistence contract. Transfer and the status
// transitions are compare-and-set operations: the store checks the
// precondition and applies the mutation under one lock (or one SQL
// statement), so two racing callers cannot both succeed.
type Store interface {
	Create(ctx context.Context, token *models.ProofToken) error
	Find(ctx context.Context, tokenID id.TokenID) (*models.ProofToken, error)
	ListByIssuer(ctx context.Context, issuerID id.IssuerID) ([]*models.ProofToken, error)
	ListByOwner(ctx context.Context, owner id.Address) ([]*models.ProofToken, error)

	// Transfer appends a transfer record if the token is active and
	// record.From matches the current owner, then marks the token
	// transferred. ErrInvalidState if not active, ErrConflict if the owner
	// moved underneath the caller.
	Transfer(ctx context.Context, tokenID id.TokenID, record models.TransferRecord) error

	// Revoke moves an active token to revoked. ErrInvalidState otherwise.
	Revoke(ctx context.Context, tokenID id.TokenID) error

	// MarkExpired moves an active token whose expiry has passed to expired.
	// Used by the lazy-expiry path; ErrInvalidState if the token is not
	// active or has no elapsed expiry.
	MarkExpired(ctx context.Context, tokenID id.TokenID) error
}

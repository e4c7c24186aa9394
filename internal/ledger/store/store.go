// Package store persists the local transaction mirror.
package store

import (
	"context"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	"github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
)

// Store is the transaction persistence contract.
//
// Errors follow the sentinel convention: sentinel.ErrNotFound for unknown
// ids, sentinel.ErrConflict for duplicate creates, sentinel.ErrInvalidState
// when a status update targets a non-pending transaction. Status moves
// forward only: pending to confirmed or pending to failed.
type Store interface {
	Create(ctx context.Context, tx *models.Transaction) error
	Find(ctx context.Context, txID id.TxID) (*models.Transaction, error)
	ListByType(ctx context.Context, txType models.TxType) ([]*models.Transaction, error)
	// ListPending returns pending transactions whose NextRetryAt is at or
	// before due, oldest first.
	ListPending(ctx context.Context, due time.Time) ([]*models.Transaction, error)

	AttachRef(ctx context.Context, txID id.TxID, ref connector.TxRef) error
	SetConfirmations(ctx context.Context, txID id.TxID, confirmations int) error
	// ScheduleRetry bumps the attempt counter and sets the next poll time.
	ScheduleRetry(ctx context.Context, txID id.TxID, attempts int, next time.Time) error
	MarkConfirmed(ctx context.Context, txID id.TxID, confirmations int) error
	MarkFailed(ctx context.Context, txID id.TxID) error
}

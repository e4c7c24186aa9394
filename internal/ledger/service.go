// Package ledger keeps the local, queryable mirror of submitted chain
// transactions and runs the confirmation poller that moves them out of
// pending.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	"github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	"github.com/bidurkhatri/veridity-ledger/internal/ledger/store"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// Service wraps the transaction store behind validated operations.
type Service struct {
	txs    store.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(txs store.Store, opts ...Option) *Service {
	s := &Service{
		txs:    txs,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends a transaction. New records start pending and are picked up
// by the poller on its next sweep.
func (s *Service) Record(ctx context.Context, tx *models.Transaction) error {
	if tx.ID.IsNil() {
		tx.ID = id.NewTxID()
	}
	if tx.Status == "" {
		tx.Status = models.TxPending
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = s.now()
	}
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		return translate(err)
	}
	s.logger.InfoContext(ctx, "transaction recorded",
		"tx_id", tx.ID, "type", tx.Type, "network_id", tx.NetworkID)
	return nil
}

func (s *Service) Get(ctx context.Context, txID id.TxID) (*models.Transaction, error) {
	tx, err := s.txs.Find(ctx, txID)
	return tx, translate(err)
}

// ListByType serves the analytics index.
func (s *Service) ListByType(ctx context.Context, txType models.TxType) ([]*models.Transaction, error) {
	if !txType.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown transaction type %q", txType)
	}
	txs, err := s.txs.ListByType(ctx, txType)
	return txs, translate(err)
}

// AttachRef stores the connector handle once submission succeeds.
func (s *Service) AttachRef(ctx context.Context, txID id.TxID, ref connector.TxRef) error {
	return translate(s.txs.AttachRef(ctx, txID, ref))
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "transaction not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "transaction already recorded")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, "transaction already settled")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction store failure")
	}
}

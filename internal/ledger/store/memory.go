package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	"github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// InMemory keeps transactions in a map with a secondary index by type. The
// single mutex serializes every status update, which is what keeps the
// forward-only lifecycle safe under concurrent pollers.
type InMemory struct {
	mu     sync.RWMutex
	txs    map[id.TxID]*models.Transaction
	byType map[models.TxType][]id.TxID
}

func NewInMemory() *InMemory {
	return &InMemory{
		txs:    make(map[id.TxID]*models.Transaction),
		byType: make(map[models.TxType][]id.TxID),
	}
}

func copyTx(tx *models.Transaction) *models.Transaction {
	out := *tx
	if tx.Payload != nil {
		out.Payload = make(map[string]string, len(tx.Payload))
		for k, v := range tx.Payload {
			out.Payload[k] = v
		}
	}
	return &out
}

func (s *InMemory) Create(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[tx.ID]; ok {
		return fmt.Errorf("transaction %s: %w", tx.ID, sentinel.ErrConflict)
	}
	s.txs[tx.ID] = copyTx(tx)
	s.byType[tx.Type] = append(s.byType[tx.Type], tx.ID)
	return nil
}

func (s *InMemory) Find(_ context.Context, txID id.TxID) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[txID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", txID, sentinel.ErrNotFound)
	}
	return copyTx(tx), nil
}

func (s *InMemory) ListByType(_ context.Context, txType models.TxType) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byType[txType]
	out := make([]*models.Transaction, 0, len(ids))
	for _, txID := range ids {
		out = append(out, copyTx(s.txs[txID]))
	}
	return out, nil
}

func (s *InMemory) ListPending(_ context.Context, due time.Time) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Transaction
	for _, tx := range s.txs {
		if tx.Status == models.TxPending && !tx.NextRetryAt.After(due) {
			out = append(out, copyTx(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *InMemory) AttachRef(_ context.Context, txID id.TxID, ref connector.TxRef) error {
	return s.update(txID, func(tx *models.Transaction) error {
		tx.Ref = ref
		return nil
	})
}

func (s *InMemory) SetConfirmations(_ context.Context, txID id.TxID, confirmations int) error {
	return s.update(txID, func(tx *models.Transaction) error {
		if tx.Status != models.TxPending {
			return fmt.Errorf("transaction %s is %s: %w", txID, tx.Status, sentinel.ErrInvalidState)
		}
		tx.Confirmations = confirmations
		return nil
	})
}

func (s *InMemory) ScheduleRetry(_ context.Context, txID id.TxID, attempts int, next time.Time) error {
	return s.update(txID, func(tx *models.Transaction) error {
		if tx.Status != models.TxPending {
			return fmt.Errorf("transaction %s is %s: %w", txID, tx.Status, sentinel.ErrInvalidState)
		}
		tx.Attempts = attempts
		tx.NextRetryAt = next
		return nil
	})
}

func (s *InMemory) MarkConfirmed(_ context.Context, txID id.TxID, confirmations int) error {
	return s.transition(txID, models.TxConfirmed, confirmations)
}

func (s *InMemory) MarkFailed(_ context.Context, txID id.TxID) error {
	return s.transition(txID, models.TxFailed, 0)
}

func (s *InMemory) transition(txID id.TxID, target models.TxStatus, confirmations int) error {
	return s.update(txID, func(tx *models.Transaction) error {
		if tx.Status != models.TxPending {
			return fmt.Errorf("transaction %s is %s: %w", txID, tx.Status, sentinel.ErrInvalidState)
		}
		tx.Status = target
		if confirmations > tx.Confirmations {
			tx.Confirmations = confirmations
		}
		return nil
	})
}

func (s *InMemory) update(txID id.TxID, fn func(*models.Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[txID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", txID, sentinel.ErrNotFound)
	}
	return fn(tx)
}

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	"github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	"github.com/bidurkhatri/veridity-ledger/internal/ledger/store"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

type MemorySuite struct {
	suite.Suite
	store *store.InMemory
}

func (s *MemorySuite) SetupTest() {
	s.store = store.NewInMemory()
}

func newTx(txType models.TxType) *models.Transaction {
	return &models.Transaction{
		ID:        id.NewTxID(),
		NetworkID: "ethereum",
		Type:      txType,
		From:      "0xissuer",
		To:        "0xholder",
		Timestamp: time.Now(),
		Status:    models.TxPending,
		Payload:   map[string]string{"token_id": "abc"},
	}
}

func (s *MemorySuite) TestCreateFindRoundTrip() {
	ctx := context.Background()
	tx := newTx(models.TxMint)
	s.Require().NoError(s.store.Create(ctx, tx))

	got, err := s.store.Find(ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal(tx.ID, got.ID)
	s.Equal(models.TxPending, got.Status)

	s.ErrorIs(s.store.Create(ctx, tx), sentinel.ErrConflict)
}

func (s *MemorySuite) TestFindUnknown() {
	_, err := s.store.Find(context.Background(), id.NewTxID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemorySuite) TestTypeIndex() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newTx(models.TxMint)))
	s.Require().NoError(s.store.Create(ctx, newTx(models.TxMint)))
	s.Require().NoError(s.store.Create(ctx, newTx(models.TxTransfer)))

	mints, err := s.store.ListByType(ctx, models.TxMint)
	s.Require().NoError(err)
	s.Len(mints, 2)

	transfers, err := s.store.ListByType(ctx, models.TxTransfer)
	s.Require().NoError(err)
	s.Len(transfers, 1)

	verifies, err := s.store.ListByType(ctx, models.TxVerify)
	s.Require().NoError(err)
	s.Empty(verifies)
}

func (s *MemorySuite) TestListPendingFiltersByDueTime() {
	ctx := context.Background()
	now := time.Now()

	due := newTx(models.TxMint)
	s.Require().NoError(s.store.Create(ctx, due))

	later := newTx(models.TxMint)
	later.NextRetryAt = now.Add(time.Hour)
	s.Require().NoError(s.store.Create(ctx, later))

	settled := newTx(models.TxMint)
	s.Require().NoError(s.store.Create(ctx, settled))
	s.Require().NoError(s.store.MarkConfirmed(ctx, settled.ID, 3))

	pending, err := s.store.ListPending(ctx, now)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(due.ID, pending[0].ID)
}

func (s *MemorySuite) TestStatusMovesForwardOnly() {
	ctx := context.Background()
	tx := newTx(models.TxMint)
	s.Require().NoError(s.store.Create(ctx, tx))

	s.Require().NoError(s.store.MarkConfirmed(ctx, tx.ID, 5))
	got, err := s.store.Find(ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal(models.TxConfirmed, got.Status)
	s.Equal(5, got.Confirmations)

	s.ErrorIs(s.store.MarkFailed(ctx, tx.ID), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.MarkConfirmed(ctx, tx.ID, 6), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.SetConfirmations(ctx, tx.ID, 7), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.ScheduleRetry(ctx, tx.ID, 1, time.Now()), sentinel.ErrInvalidState)
}

func (s *MemorySuite) TestAttachRefAndRetryBookkeeping() {
	ctx := context.Background()
	tx := newTx(models.TxTransfer)
	s.Require().NoError(s.store.Create(ctx, tx))

	s.Require().NoError(s.store.AttachRef(ctx, tx.ID, connector.TxRef("0xabc")))
	next := time.Now().Add(time.Minute)
	s.Require().NoError(s.store.ScheduleRetry(ctx, tx.ID, 2, next))

	got, err := s.store.Find(ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal(connector.TxRef("0xabc"), got.Ref)
	s.Equal(2, got.Attempts)
	s.True(got.NextRetryAt.Equal(next))
}

func (s *MemorySuite) TestCopyIsolation() {
	ctx := context.Background()
	tx := newTx(models.TxMint)
	s.Require().NoError(s.store.Create(ctx, tx))

	got, err := s.store.Find(ctx, tx.ID)
	s.Require().NoError(err)
	got.Status = models.TxFailed
	got.Payload["token_id"] = "mutated"

	again, err := s.store.Find(ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal(models.TxPending, again.Status)
	s.Equal("abc", again.Payload["token_id"])
}

func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemorySuite))
}

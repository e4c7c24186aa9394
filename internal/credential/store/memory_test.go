package store

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

type TokenStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *TokenStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestTokenStoreSuite(t *testing.T) {
	suite.Run(t, new(TokenStoreSuite))
}

func (s *TokenStoreSuite) newToken(suffix string, holder id.Address) *models.ProofToken {
	tokenID := id.TokenID(strings.Repeat(suffix, 64/len(suffix)))
	return &models.ProofToken{
		ID:        tokenID,
		NetworkID: "ethereum",
		IssuerID:  "cisco-systems",
		Holder:    holder,
		Status:    models.TokenActive,
		MintedAt:  time.Now(),
	}
}

func (s *TokenStoreSuite) TestCreateAndFind() {
	token := s.newToken("a", "0xalice")
	s.Require().NoError(s.store.Create(s.ctx, token))

	s.Run("finds by id", func() {
		found, err := s.store.Find(s.ctx, token.ID)
		s.Require().NoError(err)
		s.Equal(id.Address("0xalice"), found.CurrentOwner())
	})

	s.Run("duplicate id conflicts", func() {
		err := s.store.Create(s.ctx, s.newToken("a", "0xother"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown id not found", func() {
		_, err := s.store.Find(s.ctx, id.TokenID(strings.Repeat("f", 64)))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("issuer index lists the token", func() {
		tokens, err := s.store.ListByIssuer(s.ctx, "cisco-systems")
		s.Require().NoError(err)
		s.Len(tokens, 1)
	})
}

func (s *TokenStoreSuite) TestTransferUpdatesOwnership() {
	token := s.newToken("b", "0xalice")
	s.Require().NoError(s.store.Create(s.ctx, token))

	s.Require().NoError(s.store.Transfer(s.ctx, token.ID, models.TransferRecord{
		From: "0xalice", To: "0xbob", Price: 1.5, Currency: "ETH",
	}))

	found, err := s.store.Find(s.ctx, token.ID)
	s.Require().NoError(err)
	s.Equal(id.Address("0xbob"), found.CurrentOwner())
	s.Equal(models.TokenTransferred, found.Status)
	s.Require().Len(found.TransferHistory, 1)
	s.False(found.TransferHistory[0].Timestamp.IsZero())
}

func (s *TokenStoreSuite) TestTransferPreconditions() {
	token := s.newToken("c", "0xalice")
	s.Require().NoError(s.store.Create(s.ctx, token))

	s.Run("wrong owner conflicts", func() {
		err := s.store.Transfer(s.ctx, token.ID, models.TransferRecord{From: "0xmallory", To: "0xbob"})
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("second transfer is invalid state", func() {
		s.Require().NoError(s.store.Transfer(s.ctx, token.ID, models.TransferRecord{From: "0xalice", To: "0xbob"}))
		err := s.store.Transfer(s.ctx, token.ID, models.TransferRecord{From: "0xbob", To: "0xcarol"})
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *TokenStoreSuite) TestConcurrentTransfersExactlyOneWins() {
	token := s.newToken("d", "0xalice")
	s.Require().NoError(s.store.Create(s.ctx, token))

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			results <- s.store.Transfer(s.ctx, token.ID, models.TransferRecord{From: "0xalice", To: "0xbob"})
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		}
	}
	s.Equal(1, wins, "exactly one concurrent transfer must commit")

	found, err := s.store.Find(s.ctx, token.ID)
	s.Require().NoError(err)
	s.Len(found.TransferHistory, 1)
}

func (s *TokenStoreSuite) TestStatusTransitionsAreMonotone() {
	s.Run("revoked token cannot transfer", func() {
		token := s.newToken("e", "0xalice")
		s.Require().NoError(s.store.Create(s.ctx, token))
		s.Require().NoError(s.store.Revoke(s.ctx, token.ID))

		err := s.store.Transfer(s.ctx, token.ID, models.TransferRecord{From: "0xalice", To: "0xbob"})
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("revoked token cannot be revoked again", func() {
		token := s.newToken("1", "0xalice")
		s.Require().NoError(s.store.Create(s.ctx, token))
		s.Require().NoError(s.store.Revoke(s.ctx, token.ID))
		s.Require().ErrorIs(s.store.Revoke(s.ctx, token.ID), sentinel.ErrInvalidState)
	})

	s.Run("MarkExpired requires an elapsed expiry", func() {
		future := time.Now().Add(time.Hour)
		token := s.newToken("2", "0xalice")
		token.ExpiresAt = &future
		s.Require().NoError(s.store.Create(s.ctx, token))
		s.Require().ErrorIs(s.store.MarkExpired(s.ctx, token.ID), sentinel.ErrInvalidState)

		past := time.Now().Add(-time.Hour)
		expired := s.newToken("3", "0xalice")
		expired.ExpiresAt = &past
		s.Require().NoError(s.store.Create(s.ctx, expired))
		s.Require().NoError(s.store.MarkExpired(s.ctx, expired.ID))
	})
}

func (s *TokenStoreSuite) TestFindReturnsCopies() {
	token := s.newToken("4", "0xalice")
	s.Require().NoError(s.store.Create(s.ctx, token))

	found, err := s.store.Find(s.ctx, token.ID)
	s.Require().NoError(err)
	found.TransferHistory = append(found.TransferHistory, models.TransferRecord{From: "0xalice", To: "0xeve"})
	found.Status = models.TokenRevoked

	again, err := s.store.Find(s.ctx, token.ID)
	s.Require().NoError(err)
	s.Empty(again.TransferHistory)
	s.Equal(models.TokenActive, again.Status)
}

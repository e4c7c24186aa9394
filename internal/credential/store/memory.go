package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// InMemory keeps tokens in a map with secondary indices by issuer and owner.
// The single mutex is the per-token serialization point the concurrency model
// requires: all compare-and-set transitions happen under it.
type InMemory struct {
	mu       sync.RWMutex
	tokens   map[id.TokenID]*models.ProofToken
	byIssuer map[id.IssuerID][]id.TokenID
}

func NewInMemory() *InMemory {
	return &InMemory{
		tokens:   make(map[id.TokenID]*models.ProofToken),
		byIssuer: make(map[id.IssuerID][]id.TokenID),
	}
}

func (s *InMemory) Create(_ context.Context, token *models.ProofToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[token.ID]; exists {
		return fmt.Errorf("token %s: %w", token.ID, sentinel.ErrConflict)
	}
	s.tokens[token.ID] = copyToken(token)
	s.byIssuer[token.IssuerID] = append(s.byIssuer[token.IssuerID], token.ID)
	return nil
}

func (s *InMemory) Find(_ context.Context, tokenID id.TokenID) (*models.ProofToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[tokenID]
	if !ok {
		return nil, fmt.Errorf("token %s: %w", tokenID, sentinel.ErrNotFound)
	}
	return copyToken(token), nil
}

func (s *InMemory) ListByIssuer(_ context.Context, issuerID id.IssuerID) ([]*models.ProofToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byIssuer[issuerID]
	out := make([]*models.ProofToken, 0, len(ids))
	for _, tokenID := range ids {
		out = append(out, copyToken(s.tokens[tokenID]))
	}
	return out, nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner id.Address) ([]*models.ProofToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ProofToken
	for _, token := range s.tokens {
		if token.CurrentOwner() == owner {
			out = append(out, copyToken(token))
		}
	}
	return out, nil
}

func (s *InMemory) Transfer(_ context.Context, tokenID id.TokenID, record models.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[tokenID]
	if !ok {
		return fmt.Errorf("token %s: %w", tokenID, sentinel.ErrNotFound)
	}
	if token.Status != models.TokenActive {
		return fmt.Errorf("token %s is %s: %w", tokenID, token.Status, sentinel.ErrInvalidState)
	}
	if token.CurrentOwner() != record.From {
		return fmt.Errorf("token %s owner changed: %w", tokenID, sentinel.ErrConflict)
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	// History stays strictly timestamp-ordered since appends are serialized here.
	token.TransferHistory = append(token.TransferHistory, record)
	token.Status = models.TokenTransferred
	return nil
}

func (s *InMemory) Revoke(_ context.Context, tokenID id.TokenID) error {
	return s.transition(tokenID, models.TokenRevoked, nil)
}

func (s *InMemory) MarkExpired(_ context.Context, tokenID id.TokenID) error {
	now := time.Now()
	return s.transition(tokenID, models.TokenExpired, &now)
}

// transition applies an active→target CAS. requireExpiredBy guards the
// expired transition so a live token cannot be expired early.
func (s *InMemory) transition(tokenID id.TokenID, target models.TokenStatus, requireExpiredBy *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[tokenID]
	if !ok {
		return fmt.Errorf("token %s: %w", tokenID, sentinel.ErrNotFound)
	}
	if token.Status != models.TokenActive {
		return fmt.Errorf("token %s is %s: %w", tokenID, token.Status, sentinel.ErrInvalidState)
	}
	if requireExpiredBy != nil && !token.ExpiredAt(*requireExpiredBy) {
		return fmt.Errorf("token %s has not expired: %w", tokenID, sentinel.ErrInvalidState)
	}
	token.Status = target
	return nil
}

func copyToken(token *models.ProofToken) *models.ProofToken {
	copied := *token
	copied.TransferHistory = append([]models.TransferRecord(nil), token.TransferHistory...)
	copied.Metadata.Attributes = append([]models.Attribute(nil), token.Metadata.Attributes...)
	if token.ExpiresAt != nil {
		expires := *token.ExpiresAt
		copied.ExpiresAt = &expires
	}
	return &copied
}

package did

import (
	"context"
	"fmt"
	"sync"

	"github.com/bidurkhatri/veridity-ledger/internal/did/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// Store persists DID documents.
type Store interface {
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	Find(ctx context.Context, didID id.DID) (*models.Document, error)
}

// InMemoryStore keeps documents in a map.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[id.DID]*models.Document
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[id.DID]*models.Document)}
}

func copyDoc(doc *models.Document) *models.Document {
	out := *doc
	out.Context = append([]string(nil), doc.Context...)
	out.VerificationMethod = append([]models.VerificationMethod(nil), doc.VerificationMethod...)
	out.Authentication = append([]string(nil), doc.Authentication...)
	out.AssertionMethod = append([]string(nil), doc.AssertionMethod...)
	return &out
}

func (s *InMemoryStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return fmt.Errorf("did %s: %w", doc.ID, sentinel.ErrConflict)
	}
	s.docs[doc.ID] = copyDoc(doc)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		return fmt.Errorf("did %s: %w", doc.ID, sentinel.ErrNotFound)
	}
	s.docs[doc.ID] = copyDoc(doc)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, didID id.DID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[didID]
	if !ok {
		return nil, fmt.Errorf("did %s: %w", didID, sentinel.ErrNotFound)
	}
	return copyDoc(doc), nil
}

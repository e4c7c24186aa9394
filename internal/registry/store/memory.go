// Package store holds the in-memory reference-data stores. Reads are
// RWMutex-concurrent; mutations take the write lock. All methods follow the
// store error contract: sentinel.ErrNotFound for unknown ids, wrapped errors
// for infrastructure failures.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/registry/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// NetworkStore keeps known external networks.
type NetworkStore struct {
	mu       sync.RWMutex
	networks map[id.NetworkID]*models.Network
}

func NewNetworkStore() *NetworkStore {
	return &NetworkStore{networks: make(map[id.NetworkID]*models.Network)}
}

func (s *NetworkStore) Create(_ context.Context, network *models.Network) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.networks[network.ID]; exists {
		return fmt.Errorf("network %s: %w", network.ID, sentinel.ErrConflict)
	}
	s.networks[network.ID] = network
	return nil
}

func (s *NetworkStore) Find(_ context.Context, networkID id.NetworkID) (*models.Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if network, ok := s.networks[networkID]; ok {
		copied := *network
		return &copied, nil
	}
	return nil, fmt.Errorf("network %s: %w", networkID, sentinel.ErrNotFound)
}

func (s *NetworkStore) List(_ context.Context, status models.NetworkStatus) ([]*models.Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Network
	for _, network := range s.networks {
		if status != "" && network.Status != status {
			continue
		}
		copied := *network
		out = append(out, &copied)
	}
	return out, nil
}

// SetStatus records a health-check outcome. Networks are never deleted.
func (s *NetworkStore) SetStatus(_ context.Context, networkID id.NetworkID, status models.NetworkStatus, blockHeight uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	network, ok := s.networks[networkID]
	if !ok {
		return fmt.Errorf("network %s: %w", networkID, sentinel.ErrNotFound)
	}
	network.Status = status
	if blockHeight > network.BlockHeight {
		network.BlockHeight = blockHeight
	}
	network.UpdatedAt = time.Now()
	return nil
}

// ContractStore keeps deployed-contract metadata.
type ContractStore struct {
	mu        sync.RWMutex
	contracts map[id.ContractID]*models.SmartContract
}

func NewContractStore() *ContractStore {
	return &ContractStore{contracts: make(map[id.ContractID]*models.SmartContract)}
}

func (s *ContractStore) Create(_ context.Context, contract *models.SmartContract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contracts[contract.ID]; exists {
		return fmt.Errorf("contract %s: %w", contract.ID, sentinel.ErrConflict)
	}
	s.contracts[contract.ID] = contract
	return nil
}

func (s *ContractStore) Find(_ context.Context, contractID id.ContractID) (*models.SmartContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if contract, ok := s.contracts[contractID]; ok {
		copied := *contract
		return &copied, nil
	}
	return nil, fmt.Errorf("contract %s: %w", contractID, sentinel.ErrNotFound)
}

func (s *ContractStore) ListByNetwork(_ context.Context, networkID id.NetworkID) ([]*models.SmartContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SmartContract
	for _, contract := range s.contracts {
		if networkID != "" && contract.NetworkID != networkID {
			continue
		}
		copied := *contract
		out = append(out, &copied)
	}
	return out, nil
}

// TemplateStore keeps credential templates.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[id.TemplateID]*models.CredentialTemplate
}

func NewTemplateStore() *TemplateStore {
	return &TemplateStore{templates: make(map[id.TemplateID]*models.CredentialTemplate)}
}

func (s *TemplateStore) Create(_ context.Context, template *models.CredentialTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[template.ID]; exists {
		return fmt.Errorf("template %s: %w", template.ID, sentinel.ErrConflict)
	}
	s.templates[template.ID] = template
	return nil
}

func (s *TemplateStore) Find(_ context.Context, templateID id.TemplateID) (*models.CredentialTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if template, ok := s.templates[templateID]; ok {
		copied := *template
		return &copied, nil
	}
	return nil, fmt.Errorf("template %s: %w", templateID, sentinel.ErrNotFound)
}

func (s *TemplateStore) ListByCategory(_ context.Context, category models.Category) ([]*models.CredentialTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CredentialTemplate
	for _, template := range s.templates {
		if category != "" && template.Category != category {
			continue
		}
		copied := *template
		out = append(out, &copied)
	}
	return out, nil
}

// IssuerStore keeps issuers and owns their counters and collection indices.
type IssuerStore struct {
	mu      sync.RWMutex
	issuers map[id.IssuerID]*models.Issuer
}

func NewIssuerStore() *IssuerStore {
	return &IssuerStore{issuers: make(map[id.IssuerID]*models.Issuer)}
}

func (s *IssuerStore) Create(_ context.Context, issuer *models.Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.issuers[issuer.ID]; exists {
		return fmt.Errorf("issuer %s: %w", issuer.ID, sentinel.ErrConflict)
	}
	s.issuers[issuer.ID] = issuer
	return nil
}

func (s *IssuerStore) Find(_ context.Context, issuerID id.IssuerID) (*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issuer, ok := s.issuers[issuerID]
	if !ok {
		return nil, fmt.Errorf("issuer %s: %w", issuerID, sentinel.ErrNotFound)
	}
	copied := *issuer
	copied.Collection = append([]id.TokenID(nil), issuer.Collection...)
	return &copied, nil
}

func (s *IssuerStore) List(_ context.Context, issuerType models.IssuerType) ([]*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Issuer
	for _, issuer := range s.issuers {
		if issuerType != "" && issuer.Type != issuerType {
			continue
		}
		copied := *issuer
		copied.Collection = append([]id.TokenID(nil), issuer.Collection...)
		out = append(out, &copied)
	}
	return out, nil
}

// RecordMint appends a token to the issuer's collection and increments the
// counter in one step, so concurrent mints never lose updates.
func (s *IssuerStore) RecordMint(_ context.Context, issuerID id.IssuerID, tokenID id.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	issuer, ok := s.issuers[issuerID]
	if !ok {
		return fmt.Errorf("issuer %s: %w", issuerID, sentinel.ErrNotFound)
	}
	issuer.TotalIssued++
	issuer.Collection = append(issuer.Collection, tokenID)
	return nil
}

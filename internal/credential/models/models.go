// Package models defines the proof token aggregate and the metadata document
// the mint pipeline produces.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	registry "github.com/bidurkhatri/veridity-ledger/internal/registry/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
)

// TokenStatus is the proof token lifecycle. Transitions are monotone: a token
// leaves `active` exactly once, and revoked/expired/transferred are terminal.
type TokenStatus string

const (
	TokenActive      TokenStatus = "active"
	TokenRevoked     TokenStatus = "revoked"
	TokenExpired     TokenStatus = "expired"
	TokenTransferred TokenStatus = "transferred"
)

// Terminal reports whether no further status transition is allowed.
func (s TokenStatus) Terminal() bool {
	return s == TokenRevoked || s == TokenExpired || s == TokenTransferred
}

// Attribute is one display entry in the metadata document. Field order is
// part of the canonical encoding, so never reorder.
type Attribute struct {
	TraitType   string `json:"trait_type"`
	Value       string `json:"value"`
	DisplayType string `json:"display_type,omitempty"`
}

// MetadataDocument is what gets content-addressed. json.Marshal of a struct
// emits fields in declaration order, which keeps CanonicalBytes deterministic.
type MetadataDocument struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	ExternalURL string      `json:"external_url"`
	Category    string      `json:"category"`
	Attributes  []Attribute `json:"attributes"`
}

// CanonicalBytes returns the byte encoding used for content addressing and
// the proof digest.
func (d MetadataDocument) CanonicalBytes() ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return b, nil
}

// TransferRecord is one entry in a token's append-only transfer history.
type TransferRecord struct {
	From      id.Address `json:"from"`
	To        id.Address `json:"to"`
	Price     float64    `json:"price"`
	Currency  string     `json:"currency"`
	Timestamp time.Time  `json:"timestamp"`
}

// ProofToken is the non-fungible credential record.
//
// Holder is the mint-time holder and never changes; CurrentOwner is derived
// from the transfer history, which makes the ownership invariant hold by
// construction.
type ProofToken struct {
	ID              id.TokenID
	ContractID      id.ContractID
	ContractAddress string
	NetworkID       id.NetworkID
	Category        registry.Category
	Metadata        MetadataDocument
	IssuerID        id.IssuerID
	Holder          id.Address
	Status          TokenStatus
	MintedAt        time.Time
	ExpiresAt       *time.Time
	TransferHistory []TransferRecord
	ContentAddress  string
	Proof           string
}

// CurrentOwner is the `to` of the last transfer record, or the mint-time
// holder if the history is empty.
func (t *ProofToken) CurrentOwner() id.Address {
	if n := len(t.TransferHistory); n > 0 {
		return t.TransferHistory[n-1].To
	}
	return t.Holder
}

// ExpiredAt reports whether the token's expiry has passed at the given time.
// Tokens without an expiry never expire.
func (t *ProofToken) ExpiredAt(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// MintRequest is the caller's input to the mint pipeline.
type MintRequest struct {
	TemplateID id.TemplateID
	IssuerID   id.IssuerID
	ContractID id.ContractID
	Holder     id.Address
	// Fields is the raw credential data checked against the template.
	Fields map[string]any
}

// MintResult reports the persisted token and the local mint transaction.
type MintResult struct {
	Token *ProofToken
	TxID  id.TxID
}

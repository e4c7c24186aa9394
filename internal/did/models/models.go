// Package models defines the decentralized identifier document.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

// VerificationMethod binds a public key to a DID.
type VerificationMethod struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Controller   string `json:"controller"`
	PublicKeyHex string `json:"publicKeyHex"`
}

// Document is a DID document. The proof is a signature over the document with
// the proof field itself excluded, so it must be computed last.
type Document struct {
	Context            []string             `json:"@context"`
	ID                 id.DID               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Authentication     []string             `json:"authentication"`
	AssertionMethod    []string             `json:"assertionMethod"`
	Created            time.Time            `json:"created"`
	Updated            time.Time            `json:"updated"`
	Proof              string               `json:"proof,omitempty"`
}

// SigningBytes is the canonical encoding covered by the proof: the full
// document minus the proof field.
func (d Document) SigningBytes() ([]byte, error) {
	unsigned := d
	unsigned.Proof = ""
	b, err := json.Marshal(unsigned)
	if err != nil {
		return nil, fmt.Errorf("encode did document: %w", err)
	}
	return b, nil
}

// Validate checks the cross-references inside the document: every
// authentication and assertion entry must name a declared verification
// method.
func (d Document) Validate() error {
	if d.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "did id is required")
	}
	if len(d.VerificationMethod) == 0 {
		return dErrors.New(dErrors.CodeValidation, "did document needs at least one verification method")
	}
	declared := make(map[string]bool, len(d.VerificationMethod))
	for _, vm := range d.VerificationMethod {
		if vm.PublicKeyHex == "" {
			return dErrors.Newf(dErrors.CodeValidation, "verification method %q has no public key", vm.ID)
		}
		declared[vm.ID] = true
	}
	for _, ref := range d.Authentication {
		if !declared[ref] {
			return dErrors.Newf(dErrors.CodeValidation, "authentication references unknown method %q", ref)
		}
	}
	for _, ref := range d.AssertionMethod {
		if !declared[ref] {
			return dErrors.Newf(dErrors.CodeValidation, "assertionMethod references unknown method %q", ref)
		}
	}
	return nil
}

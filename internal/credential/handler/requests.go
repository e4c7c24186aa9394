package handler

import (
	"strings"

	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

// MintRequest is the HTTP request body for POST /credentials.
type MintRequest struct {
	TemplateID string         `json:"template_id"`
	IssuerID   string         `json:"issuer_id"`
	ContractID string         `json:"contract_id"`
	Holder     string         `json:"holder"`
	Fields     map[string]any `json:"fields"`

	// Parsed values (populated by Validate)
	parsedTemplateID id.TemplateID
	parsedIssuerID   id.IssuerID
	parsedContractID id.ContractID
}

// Validate validates and parses the request.
func (r *MintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeValidation, "request body is required")
	}

	var err error
	if r.parsedTemplateID, err = id.ParseTemplateID(strings.TrimSpace(r.TemplateID)); err != nil {
		return err
	}
	if r.parsedIssuerID, err = id.ParseIssuerID(strings.TrimSpace(r.IssuerID)); err != nil {
		return err
	}
	if r.parsedContractID, err = id.ParseContractID(strings.TrimSpace(r.ContractID)); err != nil {
		return err
	}

	r.Holder = strings.TrimSpace(r.Holder)
	if r.Holder == "" {
		return dErrors.New(dErrors.CodeValidation, "holder is required")
	}

	return nil
}

// Domain converts the validated request into the service form.
func (r *MintRequest) Domain() models.MintRequest {
	return models.MintRequest{
		TemplateID: r.parsedTemplateID,
		IssuerID:   r.parsedIssuerID,
		ContractID: r.parsedContractID,
		Holder:     id.Address(r.Holder),
		Fields:     r.Fields,
	}
}

// RevokeRequest is the HTTP request body for POST /credentials/{id}/revoke.
type RevokeRequest struct {
	IssuerID string `json:"issuer_id"`

	parsedIssuerID id.IssuerID
}

// Validate validates and parses the request.
func (r *RevokeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeValidation, "request body is required")
	}

	var err error
	if r.parsedIssuerID, err = id.ParseIssuerID(strings.TrimSpace(r.IssuerID)); err != nil {
		return err
	}
	return nil
}

// ParsedIssuerID returns the validated issuer id.
func (r *RevokeRequest) ParsedIssuerID() id.IssuerID {
	return r.parsedIssuerID
}

package handler

import (
	"strings"
	"time"

	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

// ListRequest is the HTTP request body for POST /listings.
type ListRequest struct {
	TokenID  string  `json:"token_id"`
	Seller   string  `json:"seller"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	// Duration is a Go duration string, e.g. "72h".
	Duration string `json:"duration"`

	parsedTokenID  id.TokenID
	parsedDuration time.Duration
}

// Validate validates and parses the request.
func (r *ListRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeValidation, "request body is required")
	}

	var err error
	if r.parsedTokenID, err = id.ParseTokenID(strings.TrimSpace(r.TokenID)); err != nil {
		return err
	}

	r.Seller = strings.TrimSpace(r.Seller)
	if r.Seller == "" {
		return dErrors.New(dErrors.CodeValidation, "seller is required")
	}

	r.Duration = strings.TrimSpace(r.Duration)
	if r.Duration == "" {
		return dErrors.New(dErrors.CodeValidation, "duration is required")
	}
	if r.parsedDuration, err = time.ParseDuration(r.Duration); err != nil {
		return dErrors.New(dErrors.CodeValidation, "duration must be a valid duration string")
	}

	return nil
}

// ParsedTokenID returns the validated token id.
func (r *ListRequest) ParsedTokenID() id.TokenID { return r.parsedTokenID }

// ParsedDuration returns the validated listing duration.
func (r *ListRequest) ParsedDuration() time.Duration { return r.parsedDuration }

// PurchaseRequest is the HTTP request body for POST /listings/{id}/purchase.
type PurchaseRequest struct {
	Buyer string `json:"buyer"`
}

// Validate validates the request.
func (r *PurchaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeValidation, "request body is required")
	}
	r.Buyer = strings.TrimSpace(r.Buyer)
	if r.Buyer == "" {
		return dErrors.New(dErrors.CodeValidation, "buyer is required")
	}
	return nil
}

// CancelRequest is the HTTP request body for POST /listings/{id}/cancel.
type CancelRequest struct {
	Seller string `json:"seller"`
}

// Validate validates the request.
func (r *CancelRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeValidation, "request body is required")
	}
	r.Seller = strings.TrimSpace(r.Seller)
	if r.Seller == "" {
		return dErrors.New(dErrors.CodeValidation, "seller is required")
	}
	return nil
}

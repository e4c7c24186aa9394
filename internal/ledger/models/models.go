// Package models defines the local transaction mirror. Records are created at
// submission time and only move forward as the confirmation poller learns the
// chain outcome.
package models

import (
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
)

// TxType classifies what a transaction did.
type TxType string

const (
	TxMint      TxType = "mint"
	TxTransfer  TxType = "transfer"
	TxVerify    TxType = "verify"
	TxRevoke    TxType = "revoke"
	TxDIDUpdate TxType = "did-update"
)

func (t TxType) Valid() bool {
	switch t {
	case TxMint, TxTransfer, TxVerify, TxRevoke, TxDIDUpdate:
		return true
	}
	return false
}

// TxStatus only moves forward: pending to confirmed, or pending to failed.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Transaction mirrors one submitted chain operation. Status, Confirmations,
// Ref, and the retry bookkeeping are the only fields updated after creation,
// and only by the confirmation poller.
type Transaction struct {
	ID         id.TxID
	NetworkID  id.NetworkID
	Type       TxType
	From       id.Address
	To         id.Address
	ContractID id.ContractID
	Value      float64
	GasUsed    uint64
	GasPrice   float64
	BlockNum   uint64
	BlockHash  string
	Timestamp  time.Time
	Status     TxStatus
	// Confirmations is the count last observed by the poller.
	Confirmations int
	// Ref is the connector handle; empty until submission succeeds.
	Ref connector.TxRef
	// Payload is the connector-opaque call data, kept for re-submission.
	Payload map[string]string

	// Attempts counts poller submission/confirmation tries; NextRetryAt is
	// when the poller may try again. Both survive restarts.
	Attempts    int
	NextRetryAt time.Time
}

func (t *Transaction) Validate() error {
	if t.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "transaction id is required")
	}
	if !t.Type.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown transaction type %q", t.Type)
	}
	if t.NetworkID == "" {
		return dErrors.New(dErrors.CodeValidation, "transaction network is required")
	}
	return nil
}

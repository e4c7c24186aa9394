// Package connector declares the external boundaries the ledger depends on:
// the blockchain connector, the content-addressed store, and the signing
// provider. The core only stores their results; real RPC, pinning, and key
// custody live behind these interfaces.
package connector

import (
	"context"
	"time"

	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
)

//go:generate mockgen -source=connector.go -destination=mocks/connector_mocks.go -package=mocks

// TxRef is the connector's handle for a submitted transaction.
type TxRef string

// SubmitRequest describes a transaction handed to the external chain.
type SubmitRequest struct {
	Network  id.NetworkID
	Contract string
	Type     string
	From     id.Address
	To       id.Address
	// Payload is connector-opaque call data, typically the content address
	// or proof hash being anchored.
	Payload map[string]string
}

// Ledger owns real chain RPC and wallet signing. Calls may be slow or fail;
// callers must bound them with context deadlines.
type Ledger interface {
	Submit(ctx context.Context, req SubmitRequest) (TxRef, error)
	Confirmations(ctx context.Context, ref TxRef) (int, error)
	ExistsOnChain(ctx context.Context, proofHash string, network id.NetworkID) (bool, error)
}

// ContentStore is the content-addressed storage boundary. Put returns a
// deterministic address for the document bytes.
type ContentStore interface {
	Put(ctx context.Context, document []byte) (string, error)
	Get(ctx context.Context, address string) ([]byte, error)
}

// ProofClaims is what a provenance signature binds: the issuer identity, the
// mint time, and the digest of the canonical credential data.
type ProofClaims struct {
	Issuer   id.IssuerID
	IssuedAt time.Time
	Digest   string
}

// Signer produces and checks provenance proofs. Signatures must be
// asymmetric so holders can verify them without this service.
type Signer interface {
	Sign(ctx context.Context, claims ProofClaims) (proof string, err error)
	Verify(ctx context.Context, proof string) (ProofClaims, error)
}

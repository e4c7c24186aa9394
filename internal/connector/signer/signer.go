// Package signer implements the provenance signing boundary with a local
// Ed25519 key. Proofs are compact JWS tokens, so any holder of the public key
// can verify a credential's provenance without calling this service.
package signer

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// proofClaims is the JWS claim set. The digest binds the proof to the
// canonical credential data; iss and iat carry the issuer identity and mint
// time per the provenance contract.
type proofClaims struct {
	Digest string `json:"digest"`
	jwt.RegisteredClaims
}

// Local signs proofs with an Ed25519 key held in process.
type Local struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewLocal loads a 32-byte hex-encoded Ed25519 seed from path. An empty path
// generates an ephemeral key, which is only acceptable for development since
// proofs become unverifiable across restarts.
func NewLocal(path string) (*Local, error) {
	if path == "" {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		return &Local{priv: priv, pub: pub}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	seed, err := hex.DecodeString(string(raw))
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing key must be %d hex-encoded bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Local{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// PublicKey exposes the verification key for DID documents and out-of-band
// verifiers.
func (l *Local) PublicKey() ed25519.PublicKey { return l.pub }

func (l *Local) Sign(_ context.Context, claims connector.ProofClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, proofClaims{
		Digest: claims.Digest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   string(claims.Issuer),
			IssuedAt: jwt.NewNumericDate(claims.IssuedAt),
		},
	})
	proof, err := token.SignedString(l.priv)
	if err != nil {
		return "", fmt.Errorf("sign proof: %w", err)
	}
	return proof, nil
}

func (l *Local) Verify(_ context.Context, proof string) (connector.ProofClaims, error) {
	var claims proofClaims
	_, err := jwt.ParseWithClaims(proof, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return l.pub, nil
	})
	if err != nil {
		return connector.ProofClaims{}, fmt.Errorf("verify proof: %w: %w", sentinel.ErrInvalidState, err)
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	return connector.ProofClaims{
		Issuer:   id.IssuerID(claims.Issuer),
		IssuedAt: issuedAt,
		Digest:   claims.Digest,
	}, nil
}

// Package cas provides the content-addressed storage implementations: an
// IPFS-backed store for deployments and a local SHA-256 store for tests and
// single-process runs.
package cas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// AddressPrefix marks locally-computed SHA-256 addresses so they are
// distinguishable from IPFS CIDs.
const AddressPrefix = "sha256:"

// Digest returns the canonical hex digest of a document, without prefix.
// The mint pipeline also embeds this digest in the provenance proof.
func Digest(document []byte) string {
	sum := sha256.Sum256(document)
	return hex.EncodeToString(sum[:])
}

// Memory is an in-process content store addressing documents by SHA-256.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, document []byte) (string, error) {
	address := AddressPrefix + Digest(document)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[address] = append([]byte(nil), document...)
	return address, nil
}

func (m *Memory) Get(_ context.Context, address string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[address]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", address, sentinel.ErrNotFound)
	}
	return append([]byte(nil), doc...), nil
}

package connector

import (
	"context"
	"sync"

	"github.com/google/uuid"

	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
)

// StaticLedger is the development connector: submissions are accepted
// immediately, confirmations grow by one per poll, and every anchored proof
// hash reports as existing. It stands in until a real chain connector is
// configured.
type StaticLedger struct {
	mu        sync.Mutex
	confirmed map[TxRef]int
	anchored  map[string]bool
}

func NewStaticLedger() *StaticLedger {
	return &StaticLedger{
		confirmed: make(map[TxRef]int),
		anchored:  make(map[string]bool),
	}
}

func (l *StaticLedger) Submit(_ context.Context, req SubmitRequest) (TxRef, error) {
	ref := TxRef("static-" + uuid.NewString())
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirmed[ref] = 0
	if hash, ok := req.Payload["proof_hash"]; ok {
		l.anchored[hash] = true
	}
	return ref, nil
}

func (l *StaticLedger) Confirmations(_ context.Context, ref TxRef) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirmed[ref]++
	return l.confirmed[ref], nil
}

func (l *StaticLedger) ExistsOnChain(_ context.Context, proofHash string, _ id.NetworkID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.anchored[proofHash], nil
}

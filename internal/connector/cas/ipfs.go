package cas

import (
	"bytes"
	"context"
	"fmt"
	"io"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// IPFS stores metadata documents on an IPFS node. Addresses are CIDs.
type IPFS struct {
	sh *shell.Shell
}

// NewIPFS connects to the IPFS API at addr, e.g. "localhost:5001".
func NewIPFS(addr string) *IPFS {
	return &IPFS{sh: shell.NewShell(addr)}
}

func (s *IPFS) Put(_ context.Context, document []byte) (string, error) {
	cid, err := s.sh.Add(bytes.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("ipfs add: %w: %w", sentinel.ErrUnavailable, err)
	}
	return cid, nil
}

func (s *IPFS) Get(_ context.Context, address string) ([]byte, error) {
	rc, err := s.sh.Cat(address)
	if err != nil {
		return nil, fmt.Errorf("ipfs cat %s: %w: %w", address, sentinel.ErrUnavailable, err)
	}
	defer rc.Close()

	doc, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("ipfs read %s: %w", address, err)
	}
	return doc, nil
}

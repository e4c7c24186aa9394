// Package verify answers the question "is this credential real, right now":
// local validity, issuer standing, metadata integrity, and on-chain presence.
package verify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	credmodels "github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	registry "github.com/bidurkhatri/veridity-ledger/internal/registry/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/circuit"
)

// OnChain is the three-valued outcome of the external ledger check.
type OnChain string

const (
	OnChainPresent OnChain = "present"
	OnChainAbsent  OnChain = "absent"
	// OnChainUnknown means the chain could not be consulted. Verification
	// still answers; it never fails because the ledger is unreachable.
	OnChainUnknown OnChain = "unknown"
)

// Result is the full verification report.
type Result struct {
	Valid bool
	// Reason explains a false Valid.
	Reason         string
	IssuerVerified bool
	OnChain        OnChain
	Metadata       credmodels.MetadataDocument
	Issuer         *registry.Issuer
	Status         credmodels.TokenStatus
}

// Tokens is the credential surface verification reads.
type Tokens interface {
	Get(ctx context.Context, tokenID id.TokenID) (*credmodels.ProofToken, error)
	MarkExpired(ctx context.Context, tokenID id.TokenID) error
}

// Issuers resolves issuer records.
type Issuers interface {
	GetIssuer(ctx context.Context, issuerID id.IssuerID) (*registry.Issuer, error)
}

// Service verifies credentials.
type Service struct {
	tokens  Tokens
	issuers Issuers
	chain   connector.Ledger
	content connector.ContentStore
	signer  connector.Signer

	cache   Cache
	breaker *circuit.Breaker
	logger  *slog.Logger
	// timeout bounds each external call; probeTimeout applies while the
	// breaker is open so a dead chain costs little.
	timeout      time.Duration
	probeTimeout time.Duration
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) { s.breaker = b }
}

// WithExternalTimeout bounds chain and content-store calls.
func WithExternalTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(tokens Tokens, issuers Issuers, chain connector.Ledger, content connector.ContentStore, signer connector.Signer, opts ...Option) *Service {
	s := &Service{
		tokens:       tokens,
		issuers:      issuers,
		chain:        chain,
		content:      content,
		signer:       signer,
		cache:        NoopCache{},
		breaker:      circuit.New("chain-existence"),
		logger:       slog.Default(),
		timeout:      10 * time.Second,
		probeTimeout: time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify builds the full report. Token and issuer lookups are local and
// fatal; the on-chain and integrity checks run concurrently and degrade
// instead of failing.
func (s *Service) Verify(ctx context.Context, tokenID id.TokenID) (*Result, error) {
	token, err := s.tokens.Get(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	issuer, err := s.issuers.GetIssuer(ctx, token.IssuerID)
	if err != nil {
		return nil, err
	}

	result := &Result{
		IssuerVerified: issuer.Verified,
		OnChain:        OnChainUnknown,
		Metadata:       token.Metadata,
		Issuer:         issuer,
		Status:         token.Status,
	}

	var integrityReason string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.OnChain = s.checkOnChain(gctx, token)
		return nil
	})
	g.Go(func() error {
		integrityReason = s.checkIntegrity(gctx, token)
		return nil
	})
	_ = g.Wait()

	now := s.now()
	switch {
	case token.ExpiredAt(now):
		result.Valid = false
		result.Reason = "token expired"
		result.Status = credmodels.TokenExpired
		if token.Status == credmodels.TokenActive {
			// Settle the stored status lazily; failure changes nothing for
			// this caller.
			if err := s.tokens.MarkExpired(ctx, token.ID); err != nil {
				s.logger.WarnContext(ctx, "mark token expired", "error", err, "token_id", token.ID)
			}
		}
	case token.Status != credmodels.TokenActive:
		result.Valid = false
		result.Reason = "token is " + string(token.Status)
	case integrityReason != "":
		result.Valid = false
		result.Reason = integrityReason
	default:
		result.Valid = true
	}
	return result, nil
}

// checkOnChain consults the cache, then the chain behind the breaker.
func (s *Service) checkOnChain(ctx context.Context, token *credmodels.ProofToken) OnChain {
	proofHash := digestHex([]byte(token.Proof))
	if exists, ok := s.cache.Lookup(ctx, proofHash); ok {
		return present(exists)
	}

	timeout := s.timeout
	if s.breaker.IsOpen() {
		timeout = s.probeTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exists, err := s.chain.ExistsOnChain(callCtx, proofHash, token.NetworkID)
	if err != nil {
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.WarnContext(ctx, "chain existence breaker opened", "error", err)
		}
		return OnChainUnknown
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "chain existence breaker closed")
	}
	s.cache.Store(ctx, proofHash, exists)
	return present(exists)
}

// checkIntegrity re-fetches the metadata by content address, recomputes the
// digest, and checks the provenance proof binds that digest to the issuer.
// The returned string is empty on success and a diagnostic otherwise.
func (s *Service) checkIntegrity(ctx context.Context, token *credmodels.ProofToken) string {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stored, err := s.content.Get(callCtx, token.ContentAddress)
	if err != nil {
		s.logger.WarnContext(ctx, "content store fetch failed", "error", err, "token_id", token.ID)
		return "metadata unavailable at content address"
	}
	canonical, err := token.Metadata.CanonicalBytes()
	if err != nil {
		return "metadata not canonically encodable"
	}
	if digestHex(stored) != digestHex(canonical) {
		return "stored metadata does not match content address"
	}

	claims, err := s.signer.Verify(callCtx, token.Proof)
	if err != nil {
		return "provenance proof signature invalid"
	}
	if claims.Digest != digestHex(canonical) {
		return "provenance proof covers different metadata"
	}
	if claims.Issuer != token.IssuerID {
		return "provenance proof signed for different issuer"
	}
	return ""
}

func present(exists bool) OnChain {
	if exists {
		return OnChainPresent
	}
	return OnChainAbsent
}

func digestHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

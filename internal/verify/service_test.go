package verify_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	"github.com/bidurkhatri/veridity-ledger/internal/connector/mocks"
	credmodels "github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	registry "github.com/bidurkhatri/veridity-ledger/internal/registry/models"
	"github.com/bidurkhatri/veridity-ledger/internal/verify"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/circuit"
)

type tokensStub struct {
	token   *credmodels.ProofToken
	expired []id.TokenID
}

func (t *tokensStub) Get(_ context.Context, tokenID id.TokenID) (*credmodels.ProofToken, error) {
	if t.token == nil || t.token.ID != tokenID {
		return nil, dErrors.New(dErrors.CodeNotFound, "token not found")
	}
	tok := *t.token
	return &tok, nil
}

func (t *tokensStub) MarkExpired(_ context.Context, tokenID id.TokenID) error {
	t.expired = append(t.expired, tokenID)
	return nil
}

type issuersStub struct {
	issuer *registry.Issuer
}

func (i *issuersStub) GetIssuer(_ context.Context, issuerID id.IssuerID) (*registry.Issuer, error) {
	if i.issuer == nil || i.issuer.ID != issuerID {
		return nil, dErrors.New(dErrors.CodeNotFound, "issuer not found")
	}
	return i.issuer, nil
}

// mapCache is a deterministic in-test cache.
type mapCache struct {
	entries map[string]bool
}

func (c *mapCache) Lookup(_ context.Context, key string) (bool, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Store(_ context.Context, key string, exists bool) {
	c.entries[key] = exists
}

type VerifySuite struct {
	suite.Suite

	ctrl    *gomock.Controller
	chain   *mocks.MockLedger
	content *mocks.MockContentStore
	signer  *mocks.MockSigner
	tokens  *tokensStub
	issuers *issuersStub
	cache   *mapCache
	svc     *verify.Service

	canonical []byte
	digest    string
}

func (s *VerifySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.chain = mocks.NewMockLedger(s.ctrl)
	s.content = mocks.NewMockContentStore(s.ctrl)
	s.signer = mocks.NewMockSigner(s.ctrl)
	s.cache = &mapCache{entries: make(map[string]bool)}

	metadata := credmodels.MetadataDocument{
		Name:       "Professional Certification: CCNA",
		Category:   "professional",
		Attributes: []credmodels.Attribute{{TraitType: "Certification", Value: "CCNA"}},
	}
	canonical, err := metadata.CanonicalBytes()
	s.Require().NoError(err)
	s.canonical = canonical
	sum := sha256.Sum256(canonical)
	s.digest = hex.EncodeToString(sum[:])

	s.tokens = &tokensStub{token: &credmodels.ProofToken{
		ID:             id.TokenID(strings.Repeat("a", 64)),
		NetworkID:      "ethereum",
		Metadata:       metadata,
		IssuerID:       "cisco-systems",
		Holder:         "0xholder1",
		Status:         credmodels.TokenActive,
		MintedAt:       time.Now().Add(-time.Hour),
		ContentAddress: "sha256:" + s.digest,
		Proof:          "eyJ.proof.sig",
	}}
	s.issuers = &issuersStub{issuer: &registry.Issuer{
		ID: "cisco-systems", Name: "Cisco Systems", Type: registry.IssuerCompany,
		Verified: true, Reputation: 92,
	}}

	s.svc = verify.New(s.tokens, s.issuers, s.chain, s.content, s.signer,
		verify.WithCache(s.cache))
}

func (s *VerifySuite) goodClaims() connector.ProofClaims {
	return connector.ProofClaims{Issuer: "cisco-systems", Digest: s.digest}
}

func (s *VerifySuite) expectIntegrityOK() {
	s.content.EXPECT().Get(gomock.Any(), s.tokens.token.ContentAddress).Return(s.canonical, nil)
	s.signer.EXPECT().Verify(gomock.Any(), "eyJ.proof.sig").Return(s.goodClaims(), nil)
}

func (s *VerifySuite) TestValidToken() {
	s.expectIntegrityOK()
	s.chain.EXPECT().ExistsOnChain(gomock.Any(), gomock.Any(), id.NetworkID("ethereum")).Return(true, nil)

	result, err := s.svc.Verify(context.Background(), s.tokens.token.ID)
	s.Require().NoError(err)
	s.True(result.Valid)
	s.Empty(result.Reason)
	s.True(result.IssuerVerified)
	s.Equal(verify.OnChainPresent, result.OnChain)
	s.Equal(s.issuers.issuer, result.Issuer)
}

func (s *VerifySuite) TestUnknownToken() {
	_, err := s.svc.Verify(context.Background(), id.TokenID(strings.Repeat("f", 64)))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *VerifySuite) TestRevokedTokenInvalid() {
	s.tokens.token.Status = credmodels.TokenRevoked
	s.expectIntegrityOK()
	s.chain.EXPECT().ExistsOnChain(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)

	result, err := s.svc.Verify(context.Background(), s.tokens.token.ID)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("token is revoked", result.Reason)
}

func (s *VerifySuite) TestExpiredTokenInvalidRegardlessOfStatus() {
	past := time.Now().Add(-time.Minute)
	s.tokens.token.ExpiresAt = &past
	s.expectIntegrityOK()
	s.chain.EXPECT().ExistsOnChain(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)

	result, err := s.svc.Verify(context.Background(), s.tokens.token.ID)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("token expired", result.Reason)
	s.Equal(credmodels.TokenExpired, result.Status)
	s.Contains(s.tokens.expired, s.tokens.token.ID)
}

func (s *VerifySuite) TestChainOutageDegradesToUnknown() {
	s.expectIntegrityOK()
	s.chain.EXPECT().ExistsOnChain(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, errors.New("rpc timeout"))

	result, err := s.svc.Verify(context.Background(), s.tokens.token.ID)
	s.Require().NoError(err)
	s.True(result.Valid)
	s.Equal(verify.OnChainUnknown, result.OnChain)
}

func (s *VerifySuite) TestTamperedMetadataInvalid() {
	s.content.EXPECT().Get(gomock.Any(), gomock.Any()).Return([]byte(`{"name":"forged"}`), nil)
	s.chain.EXPECT().ExistsOnChain(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)

	result, err := s.svc.Verify(context.Background(), s.tokens.token.ID)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Contains(result.Reason, "does not match content address")
}

func (s *VerifySuite) TestProofForDifferentIssuerInvalid() {
	s.content.EXPECT().Get(gomock.Any(), gomock.Any()).Return(s.canonical, nil)
	claims := s.goodClaims()
	claims.Issuer = "mit"
	s.signer.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(claims, nil)
	s.chain.EXPECT().ExistsOnChain(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)

	result, err := s.svc.Verify(context.Background(), s.tokens.token.ID)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Contains(result.Reason, "different issuer")
}

func (s *VerifySuite) TestCacheSkipsChainCall() {
	s.expectIntegrityOK()
	s.chain.EXPECT().ExistsOnChain(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil).Times(1)

	_, err := s.svc.Verify(context.Background(), s.tokens.token.ID)
	s.Require().NoError(err)

	// Second verification hits the cache; the single Times(1) expectation
	// fails the test if the chain is consulted again.
	s.expectIntegrityOK()
	result, err := s.svc.Verify(context.Background(), s.tokens.token.ID)
	s.Require().NoError(err)
	s.Equal(verify.OnChainPresent, result.OnChain)
}

func (s *VerifySuite) TestBreakerOpensAfterRepeatedOutages() {
	breaker := circuit.New("chain-existence", circuit.WithFailureThreshold(2))
	svc := verify.New(s.tokens, s.issuers, s.chain, s.content, s.signer,
		verify.WithBreaker(breaker))

	s.chain.EXPECT().ExistsOnChain(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, errors.New("rpc timeout")).Times(2)
	s.content.EXPECT().Get(gomock.Any(), gomock.Any()).Return(s.canonical, nil).Times(2)
	s.signer.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(s.goodClaims(), nil).Times(2)

	for i := 0; i < 2; i++ {
		result, err := svc.Verify(context.Background(), s.tokens.token.ID)
		s.Require().NoError(err)
		s.Equal(verify.OnChainUnknown, result.OnChain)
	}
	s.True(breaker.IsOpen())
}

func TestVerifySuite(t *testing.T) {
	suite.Run(t, new(VerifySuite))
}

// Package credential runs the mint pipeline and owns the proof token
// lifecycle. External collaborators (chain, content store, signer) sit behind
// the connector interfaces; everything before Persisting is side-effect free.
package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	"github.com/bidurkhatri/veridity-ledger/internal/credential/metrics"
	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	"github.com/bidurkhatri/veridity-ledger/internal/credential/store"
	ledgermodels "github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	registry "github.com/bidurkhatri/veridity-ledger/internal/registry/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Stage names the mint pipeline steps. A failed mint reports the stage it
// died in.
type Stage string

const (
	StageValidating       Stage = "validating"
	StageBuildingMetadata Stage = "building_metadata"
	StageAddressing       Stage = "addressing"
	StageSigning          Stage = "signing"
	StagePersisting       Stage = "persisting"
	StageIndexed          Stage = "indexed"
)

// Registry is the reference-data surface the pipeline consults.
type Registry interface {
	GetTemplate(ctx context.Context, templateID id.TemplateID) (*registry.CredentialTemplate, error)
	GetIssuer(ctx context.Context, issuerID id.IssuerID) (*registry.Issuer, error)
	GetContract(ctx context.Context, contractID id.ContractID) (*registry.SmartContract, error)
	GetNetwork(ctx context.Context, networkID id.NetworkID) (*registry.Network, error)
	RecordMint(ctx context.Context, issuerID id.IssuerID, tokenID id.TokenID) error
}

// TxRecorder appends transactions to the local ledger mirror.
type TxRecorder interface {
	Record(ctx context.Context, tx *ledgermodels.Transaction) error
	AttachRef(ctx context.Context, txID id.TxID, ref connector.TxRef) error
}

// Publisher emits lifecycle events.
type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service is the credential issuer.
type Service struct {
	tokens   store.Store
	registry Registry
	chain    connector.Ledger
	content  connector.ContentStore
	signer   connector.Signer
	txs      TxRecorder

	publisher       Publisher
	metrics         *metrics.Metrics
	logger          *slog.Logger
	tracer          trace.Tracer
	externalTimeout time.Duration
	now             func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithExternalTimeout bounds each content-store, signer, and chain call.
func WithExternalTimeout(d time.Duration) Option {
	return func(s *Service) { s.externalTimeout = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(tokens store.Store, reg Registry, chain connector.Ledger, content connector.ContentStore, signer connector.Signer, txs TxRecorder, opts ...Option) *Service {
	s := &Service{
		tokens:          tokens,
		registry:        reg,
		chain:           chain,
		content:         content,
		signer:          signer,
		txs:             txs,
		logger:          slog.Default(),
		tracer:          otel.Tracer("credential"),
		externalTimeout: 10 * time.Second,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) failStage(stage Stage, err error) error {
	s.metrics.IncrementMintFailure(string(stage))
	return err
}

// stage opens a child span for one pipeline step. Callers end it as soon as
// the step returns so sibling stages do not nest.
func (s *Service) stage(ctx context.Context, name Stage) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "mint."+string(name))
}

// Mint runs the full pipeline. Cancellation is honored at every stage
// boundary up to Persisting; once the token is written the mint is final and
// the compensating action is Revoke, not rollback.
func (s *Service) Mint(ctx context.Context, req models.MintRequest) (*models.MintResult, error) {
	ctx, span := s.tracer.Start(ctx, "credential.mint")
	defer span.End()
	start := s.now()

	// Validating
	stageCtx, stageSpan := s.stage(ctx, StageValidating)
	template, issuer, contract, err := s.validate(stageCtx, req)
	if err != nil {
		stageSpan.End()
		return nil, s.failStage(StageValidating, err)
	}
	expiry, hasExpiry, err := expiryFrom(req.Fields)
	stageSpan.End()
	if err != nil {
		return nil, s.failStage(StageValidating, err)
	}

	// BuildingMetadata
	if err := ctx.Err(); err != nil {
		return nil, s.failStage(StageBuildingMetadata, dErrors.Wrap(err, dErrors.CodeValidation, "mint cancelled"))
	}
	_, stageSpan = s.stage(ctx, StageBuildingMetadata)
	doc, err := BuildMetadata(template, req.Fields, issuer)
	if err != nil {
		stageSpan.End()
		return nil, s.failStage(StageBuildingMetadata, err)
	}
	canonical, err := doc.CanonicalBytes()
	stageSpan.End()
	if err != nil {
		return nil, s.failStage(StageBuildingMetadata, dErrors.Wrap(err, dErrors.CodeInternal, "encode metadata"))
	}

	// Addressing
	stageCtx, stageSpan = s.stage(ctx, StageAddressing)
	address, err := s.putContent(stageCtx, canonical)
	stageSpan.End()
	if err != nil {
		return nil, s.failStage(StageAddressing, err)
	}

	// Signing
	mintedAt := s.now()
	stageCtx, stageSpan = s.stage(ctx, StageSigning)
	proof, err := s.sign(stageCtx, connector.ProofClaims{
		Issuer:   issuer.ID,
		IssuedAt: mintedAt,
		Digest:   digestHex(canonical),
	})
	stageSpan.End()
	if err != nil {
		return nil, s.failStage(StageSigning, err)
	}

	// Persisting. Last cancellation point: after the store write commits the
	// mint is observable and final.
	if err := ctx.Err(); err != nil {
		return nil, s.failStage(StagePersisting, dErrors.Wrap(err, dErrors.CodeValidation, "mint cancelled"))
	}
	token := &models.ProofToken{
		ID:              newTokenID(issuer.ID, mintedAt),
		ContractID:      contract.ID,
		ContractAddress: contract.Address,
		NetworkID:       contract.NetworkID,
		Category:        template.Category,
		Metadata:        doc,
		IssuerID:        issuer.ID,
		Holder:          req.Holder,
		Status:          models.TokenActive,
		MintedAt:        mintedAt,
		ContentAddress:  address,
		Proof:           proof,
	}
	if hasExpiry {
		token.ExpiresAt = &expiry
	}
	stageCtx, stageSpan = s.stage(ctx, StagePersisting)
	err = s.tokens.Create(stageCtx, token)
	stageSpan.End()
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, s.failStage(StagePersisting, dErrors.Wrap(err, dErrors.CodeConflict, "token id collision"))
		}
		return nil, s.failStage(StagePersisting, dErrors.Wrap(err, dErrors.CodeInternal, "persist token"))
	}

	// Indexed
	stageCtx, stageSpan = s.stage(ctx, StageIndexed)
	err = s.registry.RecordMint(stageCtx, issuer.ID, token.ID)
	stageSpan.End()
	if err != nil {
		// The token exists; surface the index failure but do not unwind.
		return nil, s.failStage(StageIndexed, err)
	}

	txID := s.recordMintTx(ctx, token)

	s.metrics.IncrementMint(string(template.Category))
	s.metrics.ObserveMintLatency(s.now().Sub(start))
	s.logger.InfoContext(ctx, "token minted",
		"token_id", token.ID, "issuer_id", issuer.ID, "template_id", template.ID, "network_id", token.NetworkID)
	s.emit(ctx, events.EventTokenMinted, string(token.ID), map[string]string{
		"issuer_id": string(issuer.ID),
		"holder":    string(token.Holder),
		"category":  string(template.Category),
	})

	return &models.MintResult{Token: token, TxID: txID}, nil
}

func (s *Service) validate(ctx context.Context, req models.MintRequest) (*registry.CredentialTemplate, *registry.Issuer, *registry.SmartContract, error) {
	if req.Holder == "" {
		return nil, nil, nil, dErrors.New(dErrors.CodeValidation, "holder address is required")
	}
	template, err := s.registry.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, nil, nil, err
	}
	issuer, err := s.registry.GetIssuer(ctx, req.IssuerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !template.AllowsIssuerType(issuer.Type) {
		return nil, nil, nil, dErrors.Newf(dErrors.CodeUnauthorized,
			"issuer type %q may not mint template %q", issuer.Type, template.ID)
	}
	contract, err := s.registry.GetContract(ctx, req.ContractID)
	if err != nil {
		return nil, nil, nil, err
	}
	if contract.Status == registry.ContractDeprecated || contract.Status == registry.ContractPaused {
		return nil, nil, nil, dErrors.Newf(dErrors.CodeValidation, "contract %q is %s", contract.ID, contract.Status)
	}
	network, err := s.registry.GetNetwork(ctx, contract.NetworkID)
	if err != nil {
		return nil, nil, nil, err
	}
	if network.Status != registry.NetworkActive {
		return nil, nil, nil, dErrors.Newf(dErrors.CodeValidation, "network %q is %s", network.ID, network.Status)
	}
	return template, issuer, contract, nil
}

func (s *Service) putContent(ctx context.Context, document []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.externalTimeout)
	defer cancel()
	address, err := s.content.Put(ctx, document)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeExternal, "content store upload failed")
	}
	return address, nil
}

func (s *Service) sign(ctx context.Context, claims connector.ProofClaims) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.externalTimeout)
	defer cancel()
	proof, err := s.signer.Sign(ctx, claims)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeExternal, "signing provider failed")
	}
	return proof, nil
}

// recordMintTx appends the local mint transaction and submits it to the
// chain. Submission failure leaves the record pending for the poller; the
// caller's mint already succeeded.
func (s *Service) recordMintTx(ctx context.Context, token *models.ProofToken) id.TxID {
	tx := &ledgermodels.Transaction{
		ID:         id.NewTxID(),
		NetworkID:  token.NetworkID,
		Type:       ledgermodels.TxMint,
		From:       id.Address(token.IssuerID),
		To:         token.Holder,
		ContractID: token.ContractID,
		Timestamp:  s.now(),
		Status:     ledgermodels.TxPending,
		Payload: map[string]string{
			"token_id":         string(token.ID),
			"content_address":  token.ContentAddress,
			"contract_address": token.ContractAddress,
			"proof_hash":       digestHex([]byte(token.Proof)),
		},
	}
	if err := s.txs.Record(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "record mint transaction", "error", err, "token_id", token.ID)
		return tx.ID
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.externalTimeout)
	defer cancel()
	ref, err := s.chain.Submit(submitCtx, connector.SubmitRequest{
		Network:  token.NetworkID,
		Contract: token.ContractAddress,
		Type:     string(ledgermodels.TxMint),
		From:     tx.From,
		To:       tx.To,
		Payload:  tx.Payload,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "chain submission deferred to poller", "error", err, "tx_id", tx.ID)
		return tx.ID
	}
	if err := s.txs.AttachRef(ctx, tx.ID, ref); err != nil {
		s.logger.ErrorContext(ctx, "attach transaction ref", "error", err, "tx_id", tx.ID)
	}
	return tx.ID
}

// Get returns a token by id.
func (s *Service) Get(ctx context.Context, tokenID id.TokenID) (*models.ProofToken, error) {
	token, err := s.tokens.Find(ctx, tokenID)
	return token, translate(err)
}

func (s *Service) ListByIssuer(ctx context.Context, issuerID id.IssuerID) ([]*models.ProofToken, error) {
	tokens, err := s.tokens.ListByIssuer(ctx, issuerID)
	return tokens, translate(err)
}

func (s *Service) ListByOwner(ctx context.Context, owner id.Address) ([]*models.ProofToken, error) {
	tokens, err := s.tokens.ListByOwner(ctx, owner)
	return tokens, translate(err)
}

// Revoke moves an active token to revoked. Only the minting issuer may
// revoke. A revoke transaction is appended to the local ledger.
func (s *Service) Revoke(ctx context.Context, tokenID id.TokenID, requester id.IssuerID) error {
	token, err := s.tokens.Find(ctx, tokenID)
	if err != nil {
		return translate(err)
	}
	if token.IssuerID != requester {
		return dErrors.Newf(dErrors.CodeUnauthorized, "issuer %q did not mint token %s", requester, tokenID)
	}
	if err := s.tokens.Revoke(ctx, tokenID); err != nil {
		return translate(err)
	}

	tx := &ledgermodels.Transaction{
		ID:         id.NewTxID(),
		NetworkID:  token.NetworkID,
		Type:       ledgermodels.TxRevoke,
		From:       id.Address(requester),
		ContractID: token.ContractID,
		Timestamp:  s.now(),
		Status:     ledgermodels.TxPending,
		Payload:    map[string]string{"token_id": string(tokenID)},
	}
	if err := s.txs.Record(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "record revoke transaction", "error", err, "token_id", tokenID)
	}

	s.metrics.IncrementTransition(string(models.TokenRevoked))
	s.logger.InfoContext(ctx, "token revoked", "token_id", tokenID, "issuer_id", requester)
	s.emit(ctx, events.EventTokenRevoked, string(tokenID), map[string]string{"issuer_id": string(requester)})
	return nil
}

// Transfer applies an ownership change. The marketplace is the only caller;
// it runs the listing claim first, so a conflict here means the token moved
// out from under the sale.
func (s *Service) Transfer(ctx context.Context, tokenID id.TokenID, record models.TransferRecord) error {
	if err := s.tokens.Transfer(ctx, tokenID, record); err != nil {
		return translate(err)
	}
	s.metrics.IncrementTransition(string(models.TokenTransferred))
	s.emit(ctx, events.EventTokenTransferred, string(tokenID), map[string]string{
		"from": string(record.From),
		"to":   string(record.To),
	})
	return nil
}

// MarkExpired moves an active token whose expiry has passed to expired.
func (s *Service) MarkExpired(ctx context.Context, tokenID id.TokenID) error {
	if err := s.tokens.MarkExpired(ctx, tokenID); err != nil {
		return translate(err)
	}
	s.metrics.IncrementTransition(string(models.TokenExpired))
	return nil
}

func (s *Service) emit(ctx context.Context, name events.Name, subject string, attrs map[string]string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, events.Event{Name: name, Subject: subject, Attributes: attrs}); err != nil {
		s.logger.WarnContext(ctx, "event emit failed", "event", name, "error", err)
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "token not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, "token not active")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "token ownership changed")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "token store failure")
	}
}

// newTokenID hashes the issuer, the mint time, and fresh entropy into a
// 64-char hex id.
func newTokenID(issuerID id.IssuerID, mintedAt time.Time) id.TokenID {
	h := sha256.New()
	h.Write([]byte(issuerID))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(mintedAt.UnixNano()))
	h.Write(ts[:])
	var entropy [16]byte
	// rand.Read never fails on supported platforms.
	_, _ = rand.Read(entropy[:])
	h.Write(entropy[:])
	return id.TokenID(hex.EncodeToString(h.Sum(nil)))
}

func digestHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// expiryFrom pulls an optional expiry_date field out of the raw credential
// data.
func expiryFrom(fields map[string]any) (time.Time, bool, error) {
	raw, ok := fields["expiry_date"]
	if !ok || raw == nil {
		return time.Time{}, false, nil
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return time.Time{}, false, dErrors.New(dErrors.CodeValidation, "expiry_date must be a date string")
	}
	t, err := ParseDateValue(s)
	if err != nil {
		return time.Time{}, false, dErrors.Wrap(err, dErrors.CodeValidation, "expiry_date is not a valid date")
	}
	return t, true, nil
}

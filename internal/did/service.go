// Package did issues and resolves decentralized identifiers.
package did

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	"github.com/bidurkhatri/veridity-ledger/internal/did/models"
	ledgermodels "github.com/bidurkhatri/veridity-ledger/internal/ledger/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
)

// Method is the DID method namespace this registry issues under.
const Method = "veridity"

const keyType = "Ed25519VerificationKey2020"

// registrySigner identifies the registry in self-proof claims.
const registrySigner = id.IssuerID("did-registry")

// TxRecorder appends transactions to the local ledger mirror.
type TxRecorder interface {
	Record(ctx context.Context, tx *ledgermodels.Transaction) error
	AttachRef(ctx context.Context, txID id.TxID, ref connector.TxRef) error
}

// Publisher emits lifecycle events.
type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service builds, signs, and resolves DID documents.
type Service struct {
	docs   Store
	signer connector.Signer
	chain  connector.Ledger
	txs    TxRecorder

	// network anchors did-update transactions.
	network   id.NetworkID
	publisher Publisher
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithNetwork sets the network DID anchors are submitted to.
func WithNetwork(network id.NetworkID) Option {
	return func(s *Service) { s.network = network }
}

// WithExternalTimeout bounds signer and chain calls.
func WithExternalTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(docs Store, signer connector.Signer, chain connector.Ledger, txs TxRecorder, opts ...Option) *Service {
	s := &Service{
		docs:    docs,
		signer:  signer,
		chain:   chain,
		txs:     txs,
		network: "ethereum",
		logger:  slog.Default(),
		timeout: 10 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create builds a DID document for the holder with one verification method
// derived from the supplied public key, signs it, and persists it.
func (s *Service) Create(ctx context.Context, holder id.Address, publicKeyHex string) (*models.Document, error) {
	if holder == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "holder address is required")
	}
	if _, err := hex.DecodeString(publicKeyHex); err != nil || publicKeyHex == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "public key must be hex encoded")
	}

	didID := id.DID("did:" + Method + ":" + strings.ToLower(string(holder)))
	methodID := string(didID) + "#key-1"
	now := s.now()
	doc := &models.Document{
		Context: []string{"https://www.w3.org/ns/did/v1"},
		ID:      didID,
		VerificationMethod: []models.VerificationMethod{{
			ID:           methodID,
			Type:         keyType,
			Controller:   string(didID),
			PublicKeyHex: publicKeyHex,
		}},
		Authentication:  []string{methodID},
		AssertionMethod: []string{methodID},
		Created:         now,
		Updated:         now,
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := s.sign(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "did already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist did document")
	}

	s.anchor(ctx, doc, holder)
	s.logger.InfoContext(ctx, "did created", "did", doc.ID)
	s.emit(ctx, events.EventDIDCreated, string(doc.ID), map[string]string{"holder": string(holder)})
	return doc, nil
}

// Update replaces a DID document. The immutable id is preserved from the
// stored document and updated is bumped; everything else comes from the
// caller.
func (s *Service) Update(ctx context.Context, didID id.DID, next *models.Document) (*models.Document, error) {
	current, err := s.docs.Find(ctx, didID)
	if err != nil {
		return nil, translate(err)
	}

	doc := copyDoc(next)
	doc.ID = current.ID
	doc.Created = current.Created
	doc.Updated = s.now()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := s.sign(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, translate(err)
	}

	s.anchor(ctx, doc, subjectOf(doc.ID))
	s.logger.InfoContext(ctx, "did updated", "did", doc.ID)
	s.emit(ctx, events.EventDIDUpdated, string(doc.ID), nil)
	return doc, nil
}

// Resolve returns the stored document for a DID.
func (s *Service) Resolve(ctx context.Context, didID id.DID) (*models.Document, error) {
	doc, err := s.docs.Find(ctx, didID)
	return doc, translate(err)
}

// sign computes the self-proof. The document must be complete: the proof
// covers every other field.
func (s *Service) sign(ctx context.Context, doc *models.Document) error {
	doc.Proof = ""
	unsigned, err := doc.SigningBytes()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode did document")
	}
	digest := sha256.Sum256(unsigned)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	proof, err := s.signer.Sign(ctx, connector.ProofClaims{
		Issuer:   registrySigner,
		IssuedAt: doc.Updated,
		Digest:   hex.EncodeToString(digest[:]),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeExternal, "signing provider failed")
	}
	doc.Proof = proof
	return nil
}

// anchor records a did-update transaction and submits it to the chain.
// Submission failure leaves the record pending for the poller.
func (s *Service) anchor(ctx context.Context, doc *models.Document, subject id.Address) {
	tx := &ledgermodels.Transaction{
		ID:        id.NewTxID(),
		NetworkID: s.network,
		Type:      ledgermodels.TxDIDUpdate,
		From:      subject,
		Timestamp: s.now(),
		Status:    ledgermodels.TxPending,
		Payload: map[string]string{
			"did":   string(doc.ID),
			"proof": doc.Proof,
		},
	}
	if err := s.txs.Record(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "record did transaction", "error", err, "did", doc.ID)
		return
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ref, err := s.chain.Submit(submitCtx, connector.SubmitRequest{
		Network: s.network,
		Type:    string(ledgermodels.TxDIDUpdate),
		From:    tx.From,
		Payload: tx.Payload,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "chain submission deferred to poller", "error", err, "tx_id", tx.ID)
		return
	}
	if err := s.txs.AttachRef(ctx, tx.ID, ref); err != nil {
		s.logger.ErrorContext(ctx, "attach transaction ref", "error", err, "tx_id", tx.ID)
	}
}

func (s *Service) emit(ctx context.Context, name events.Name, subject string, attrs map[string]string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, events.Event{Name: name, Subject: subject, Attributes: attrs}); err != nil {
		s.logger.WarnContext(ctx, "event emit failed", "event", name, "error", err)
	}
}

// subjectOf returns the method-specific identifier, the holder address for
// this registry's DIDs.
func subjectOf(didID id.DID) id.Address {
	raw := string(didID)
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		return id.Address(raw[i+1:])
	}
	return id.Address(raw)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "did not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "did already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "did store failure")
	}
}

// Package registry exposes the reference-data services the orchestrator
// consults: networks, contracts, templates, and issuers.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bidurkhatri/veridity-ledger/internal/registry/models"
	"github.com/bidurkhatri/veridity-ledger/internal/registry/store"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/sentinel"
	pstrings "github.com/bidurkhatri/veridity-ledger/pkg/platform/strings"
)

// Service wraps the four reference stores behind validated operations.
// Stores speak sentinel errors; this layer translates them into coded errors.
type Service struct {
	networks  *store.NetworkStore
	contracts *store.ContractStore
	templates *store.TemplateStore
	issuers   *store.IssuerStore
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the registry service over fresh in-memory stores.
func New(opts ...Option) *Service {
	s := &Service{
		networks:  store.NewNetworkStore(),
		contracts: store.NewContractStore(),
		templates: store.NewTemplateStore(),
		issuers:   store.NewIssuerStore(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func translate(err error, kind string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, kind+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, kind+" already registered")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, kind+" store failure")
	}
}

// RegisterNetwork adds a network at bootstrap or via admin tooling.
func (s *Service) RegisterNetwork(ctx context.Context, network *models.Network) error {
	if err := network.Validate(); err != nil {
		return err
	}
	if network.Status == "" {
		network.Status = models.NetworkActive
	}
	now := time.Now()
	network.CreatedAt = now
	network.UpdatedAt = now
	if err := s.networks.Create(ctx, network); err != nil {
		return translate(err, "network")
	}
	s.logger.InfoContext(ctx, "network registered", "network_id", network.ID, "chain_family", network.ChainFamily)
	return nil
}

func (s *Service) GetNetwork(ctx context.Context, networkID id.NetworkID) (*models.Network, error) {
	network, err := s.networks.Find(ctx, networkID)
	return network, translate(err, "network")
}

func (s *Service) ListNetworks(ctx context.Context, status models.NetworkStatus) ([]*models.Network, error) {
	networks, err := s.networks.List(ctx, status)
	return networks, translate(err, "network")
}

// SetNetworkStatus records a health-check result.
func (s *Service) SetNetworkStatus(ctx context.Context, networkID id.NetworkID, status models.NetworkStatus, blockHeight uint64) error {
	return translate(s.networks.SetStatus(ctx, networkID, status, blockHeight), "network")
}

// RegisterContract adds a contract; its network must already be registered.
func (s *Service) RegisterContract(ctx context.Context, contract *models.SmartContract) error {
	if err := contract.Validate(); err != nil {
		return err
	}
	if _, err := s.networks.Find(ctx, contract.NetworkID); err != nil {
		return dErrors.Newf(dErrors.CodeValidation, "contract references unknown network %q", contract.NetworkID)
	}
	if contract.Status == "" {
		contract.Status = models.ContractDeployed
	}
	contract.CreatedAt = time.Now()
	if err := s.contracts.Create(ctx, contract); err != nil {
		return translate(err, "contract")
	}
	s.logger.InfoContext(ctx, "contract registered", "contract_id", contract.ID, "network_id", contract.NetworkID)
	return nil
}

func (s *Service) GetContract(ctx context.Context, contractID id.ContractID) (*models.SmartContract, error) {
	contract, err := s.contracts.Find(ctx, contractID)
	return contract, translate(err, "contract")
}

func (s *Service) ListContracts(ctx context.Context, networkID id.NetworkID) ([]*models.SmartContract, error) {
	contracts, err := s.contracts.ListByNetwork(ctx, networkID)
	return contracts, translate(err, "contract")
}

// RegisterTemplate adds a credential template. Field lists are normalized
// before validation so duplicate or padded entries do not leak into schemas.
func (s *Service) RegisterTemplate(ctx context.Context, template *models.CredentialTemplate) error {
	template.Required = pstrings.DedupeAndTrim(template.Required)
	template.Optional = pstrings.DedupeAndTrim(template.Optional)
	template.VerificationRequirements = pstrings.DedupeAndTrimLower(template.VerificationRequirements)
	if err := template.Validate(); err != nil {
		return err
	}
	if err := s.templates.Create(ctx, template); err != nil {
		return translate(err, "template")
	}
	s.logger.InfoContext(ctx, "template registered", "template_id", template.ID, "category", template.Category)
	return nil
}

func (s *Service) GetTemplate(ctx context.Context, templateID id.TemplateID) (*models.CredentialTemplate, error) {
	template, err := s.templates.Find(ctx, templateID)
	return template, translate(err, "template")
}

func (s *Service) ListTemplates(ctx context.Context, category models.Category) ([]*models.CredentialTemplate, error) {
	templates, err := s.templates.ListByCategory(ctx, category)
	return templates, translate(err, "template")
}

// RegisterIssuer adds an issuer.
func (s *Service) RegisterIssuer(ctx context.Context, issuer *models.Issuer) error {
	if err := issuer.Validate(); err != nil {
		return err
	}
	issuer.CreatedAt = time.Now()
	if err := s.issuers.Create(ctx, issuer); err != nil {
		return translate(err, "issuer")
	}
	s.logger.InfoContext(ctx, "issuer registered", "issuer_id", issuer.ID, "type", issuer.Type)
	return nil
}

func (s *Service) GetIssuer(ctx context.Context, issuerID id.IssuerID) (*models.Issuer, error) {
	issuer, err := s.issuers.Find(ctx, issuerID)
	return issuer, translate(err, "issuer")
}

func (s *Service) ListIssuers(ctx context.Context, issuerType models.IssuerType) ([]*models.Issuer, error) {
	issuers, err := s.issuers.List(ctx, issuerType)
	return issuers, translate(err, "issuer")
}

// RecordMint is called by the mint pipeline's Indexed stage.
func (s *Service) RecordMint(ctx context.Context, issuerID id.IssuerID, tokenID id.TokenID) error {
	return translate(s.issuers.RecordMint(ctx, issuerID, tokenID), "issuer")
}

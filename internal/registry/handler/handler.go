// Package handler exposes the reference registries over HTTP. Read-only:
// registration happens at bootstrap and through the service API.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bidurkhatri/veridity-ledger/internal/registry/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/httputil"
)

// Service defines the registry reads the transport needs.
type Service interface {
	GetNetwork(ctx context.Context, networkID id.NetworkID) (*models.Network, error)
	ListNetworks(ctx context.Context, status models.NetworkStatus) ([]*models.Network, error)
	GetContract(ctx context.Context, contractID id.ContractID) (*models.SmartContract, error)
	ListContracts(ctx context.Context, networkID id.NetworkID) ([]*models.SmartContract, error)
	GetTemplate(ctx context.Context, templateID id.TemplateID) (*models.CredentialTemplate, error)
	ListTemplates(ctx context.Context, category models.Category) ([]*models.CredentialTemplate, error)
	GetIssuer(ctx context.Context, issuerID id.IssuerID) (*models.Issuer, error)
	ListIssuers(ctx context.Context, issuerType models.IssuerType) ([]*models.Issuer, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registry handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registry", func(r chi.Router) {
		r.Get("/networks", h.HandleListNetworks)
		r.Get("/networks/{networkID}", h.HandleGetNetwork)
		r.Get("/contracts", h.HandleListContracts)
		r.Get("/contracts/{contractID}", h.HandleGetContract)
		r.Get("/templates", h.HandleListTemplates)
		r.Get("/templates/{templateID}", h.HandleGetTemplate)
		r.Get("/issuers", h.HandleListIssuers)
		r.Get("/issuers/{issuerID}", h.HandleGetIssuer)
	})
}

// HandleListNetworks handles GET /registry/networks?status= requests.
func (h *Handler) HandleListNetworks(w http.ResponseWriter, r *http.Request) {
	status := models.NetworkStatus(r.URL.Query().Get("status"))
	networks, err := h.service.ListNetworks(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromNetworks(networks))
}

// HandleGetNetwork handles GET /registry/networks/{networkID} requests.
func (h *Handler) HandleGetNetwork(w http.ResponseWriter, r *http.Request) {
	networkID, err := id.ParseNetworkID(chi.URLParam(r, "networkID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	network, err := h.service.GetNetwork(r.Context(), networkID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromNetwork(network))
}

// HandleListContracts handles GET /registry/contracts?network= requests.
func (h *Handler) HandleListContracts(w http.ResponseWriter, r *http.Request) {
	networkID := id.NetworkID(r.URL.Query().Get("network"))
	contracts, err := h.service.ListContracts(r.Context(), networkID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContracts(contracts))
}

// HandleGetContract handles GET /registry/contracts/{contractID} requests.
func (h *Handler) HandleGetContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := id.ParseContractID(chi.URLParam(r, "contractID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	contract, err := h.service.GetContract(r.Context(), contractID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContract(contract))
}

// HandleListTemplates handles GET /registry/templates?category= requests.
func (h *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	category := models.Category(r.URL.Query().Get("category"))
	templates, err := h.service.ListTemplates(r.Context(), category)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTemplates(templates))
}

// HandleGetTemplate handles GET /registry/templates/{templateID} requests.
func (h *Handler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := id.ParseTemplateID(chi.URLParam(r, "templateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	template, err := h.service.GetTemplate(r.Context(), templateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTemplate(template))
}

// HandleListIssuers handles GET /registry/issuers?type= requests.
func (h *Handler) HandleListIssuers(w http.ResponseWriter, r *http.Request) {
	issuerType := models.IssuerType(r.URL.Query().Get("type"))
	issuers, err := h.service.ListIssuers(r.Context(), issuerType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromIssuers(issuers))
}

// HandleGetIssuer handles GET /registry/issuers/{issuerID} requests.
func (h *Handler) HandleGetIssuer(w http.ResponseWriter, r *http.Request) {
	issuerID, err := id.ParseIssuerID(chi.URLParam(r, "issuerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	issuer, err := h.service.GetIssuer(r.Context(), issuerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromIssuer(issuer))
}

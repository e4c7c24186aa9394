// Package handler exposes the credential service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/httputil"
	"github.com/bidurkhatri/veridity-ledger/pkg/requestcontext"
)

// Service defines the credential operations the transport needs.
type Service interface {
	Mint(ctx context.Context, req models.MintRequest) (*models.MintResult, error)
	Get(ctx context.Context, tokenID id.TokenID) (*models.ProofToken, error)
	ListByIssuer(ctx context.Context, issuerID id.IssuerID) ([]*models.ProofToken, error)
	ListByOwner(ctx context.Context, owner id.Address) ([]*models.ProofToken, error)
	Revoke(ctx context.Context, tokenID id.TokenID, requester id.IssuerID) error
}

// Handler wires credential endpoints to the credential service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a credential handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts credential endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials", h.HandleMint)
	r.Get("/credentials", h.HandleList)
	r.Get("/credentials/{tokenID}", h.HandleGet)
	r.Post("/credentials/{tokenID}/revoke", h.HandleRevoke)
}

// HandleMint handles POST /credentials requests.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Mint(ctx, req.Domain())
	if err != nil {
		h.logger.ErrorContext(ctx, "mint failed",
			"request_id", requestID,
			"template_id", req.TemplateID,
			"issuer_id", req.IssuerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential minted",
		"request_id", requestID,
		"token_id", result.Token.ID,
		"issuer_id", result.Token.IssuerID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromMintResult(result))
}

// HandleGet handles GET /credentials/{tokenID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tokenID, err := id.ParseTokenID(chi.URLParam(r, "tokenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.service.Get(r.Context(), tokenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromToken(token))
}

// HandleList handles GET /credentials?issuer= or ?owner= requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issuer := r.URL.Query().Get("issuer")
	owner := r.URL.Query().Get("owner")

	var (
		tokens []*models.ProofToken
		err    error
	)
	switch {
	case issuer != "" && owner != "":
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "filter by either issuer or owner, not both"))
		return
	case issuer != "":
		var issuerID id.IssuerID
		if issuerID, err = id.ParseIssuerID(issuer); err == nil {
			tokens, err = h.service.ListByIssuer(ctx, issuerID)
		}
	case owner != "":
		tokens, err = h.service.ListByOwner(ctx, id.Address(owner))
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "issuer or owner filter is required"))
		return
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromTokens(tokens))
}

// HandleRevoke handles POST /credentials/{tokenID}/revoke requests.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	tokenID, err := id.ParseTokenID(chi.URLParam(r, "tokenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Revoke(ctx, tokenID, req.ParsedIssuerID()); err != nil {
		h.logger.WarnContext(ctx, "revoke rejected",
			"request_id", requestID,
			"token_id", tokenID,
			"issuer_id", req.IssuerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential revoked",
		"request_id", requestID,
		"token_id", tokenID,
		"issuer_id", req.IssuerID,
	)

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

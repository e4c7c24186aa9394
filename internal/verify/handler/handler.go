// Package handler exposes credential verification over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bidurkhatri/veridity-ledger/internal/credential/models"
	"github.com/bidurkhatri/veridity-ledger/internal/verify"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/httputil"
	"github.com/bidurkhatri/veridity-ledger/pkg/requestcontext"
)

// Service defines the verification operation the transport needs.
type Service interface {
	Verify(ctx context.Context, tokenID id.TokenID) (*verify.Result, error)
}

// Handler wires the verification endpoint to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the verification endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials/{tokenID}/verify", h.HandleVerify)
}

// VerifyResponse is the HTTP shape of a verification report.
type VerifyResponse struct {
	Valid          bool                    `json:"valid"`
	Reason         string                  `json:"reason,omitempty"`
	IssuerVerified bool                    `json:"issuer_verified"`
	OnChain        string                  `json:"on_chain"`
	Status         string                  `json:"status"`
	Metadata       models.MetadataDocument `json:"metadata"`
	Issuer         *IssuerSummary          `json:"issuer,omitempty"`
}

// IssuerSummary is the issuer portion of the verification report.
type IssuerSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Verified   bool    `json:"verified"`
	Reputation float64 `json:"reputation"`
}

// FromResult converts a verification result to an HTTP response.
func FromResult(result *verify.Result) *VerifyResponse {
	resp := &VerifyResponse{
		Valid:          result.Valid,
		Reason:         result.Reason,
		IssuerVerified: result.IssuerVerified,
		OnChain:        string(result.OnChain),
		Status:         string(result.Status),
		Metadata:       result.Metadata,
	}
	if result.Issuer != nil {
		resp.Issuer = &IssuerSummary{
			ID:         string(result.Issuer.ID),
			Name:       result.Issuer.Name,
			Type:       string(result.Issuer.Type),
			Verified:   result.Issuer.Verified,
			Reputation: result.Issuer.Reputation,
		}
	}
	return resp
}

// HandleVerify handles POST /credentials/{tokenID}/verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	tokenID, err := id.ParseTokenID(chi.URLParam(r, "tokenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Verify(ctx, tokenID)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"token_id", tokenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential verified",
		"request_id", requestID,
		"token_id", tokenID,
		"valid", result.Valid,
		"on_chain", result.OnChain,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

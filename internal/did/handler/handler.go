// Package handler exposes the DID registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bidurkhatri/veridity-ledger/internal/did/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	dErrors "github.com/bidurkhatri/veridity-ledger/pkg/domain-errors"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/httputil"
	"github.com/bidurkhatri/veridity-ledger/pkg/requestcontext"
)

// Service defines the DID operations the transport needs.
type Service interface {
	Create(ctx context.Context, holder id.Address, publicKeyHex string) (*models.Document, error)
	Update(ctx context.Context, didID id.DID, next *models.Document) (*models.Document, error)
	Resolve(ctx context.Context, didID id.DID) (*models.Document, error)
}

// Handler wires DID endpoints to the DID registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a DID handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts DID endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/dids", h.HandleCreate)
	r.Get("/dids/{did}", h.HandleResolve)
	r.Put("/dids/{did}", h.HandleUpdate)
}

// CreateRequest is the HTTP request body for POST /dids.
type CreateRequest struct {
	Holder    string `json:"holder"`
	PublicKey string `json:"public_key"`
}

// Validate validates the request.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeValidation, "request body is required")
	}
	r.Holder = strings.TrimSpace(r.Holder)
	if r.Holder == "" {
		return dErrors.New(dErrors.CodeValidation, "holder is required")
	}
	r.PublicKey = strings.TrimSpace(r.PublicKey)
	if r.PublicKey == "" {
		return dErrors.New(dErrors.CodeValidation, "public_key is required")
	}
	return nil
}

// UpdateRequest is the raw document body for PUT /dids/{did}.
type UpdateRequest models.Document

// HandleCreate handles POST /dids requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.Create(ctx, id.Address(req.Holder), req.PublicKey)
	if err != nil {
		h.logger.WarnContext(ctx, "did creation rejected",
			"request_id", requestID,
			"holder", req.Holder,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "did created",
		"request_id", requestID,
		"did", doc.ID,
	)

	httputil.WriteJSON(w, http.StatusCreated, doc)
}

// HandleResolve handles GET /dids/{did} requests.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	didID, err := id.ParseDID(chi.URLParam(r, "did"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, err := h.service.Resolve(r.Context(), didID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, doc)
}

// HandleUpdate handles PUT /dids/{did} requests. The body is the next
// document; identity and creation time are preserved server-side.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	didID, err := id.ParseDID(chi.URLParam(r, "did"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// UpdateRequest sidesteps document validation at the transport: the
	// service fills in identity and creation time before validating.
	next, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.Update(ctx, didID, (*models.Document)(next))
	if err != nil {
		h.logger.WarnContext(ctx, "did update rejected",
			"request_id", requestID,
			"did", didID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "did updated",
		"request_id", requestID,
		"did", doc.ID,
	)

	httputil.WriteJSON(w, http.StatusOK, doc)
}

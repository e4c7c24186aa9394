// Package handler exposes the marketplace over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bidurkhatri/veridity-ledger/internal/market/models"
	id "github.com/bidurkhatri/veridity-ledger/pkg/domain"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/httputil"
	"github.com/bidurkhatri/veridity-ledger/pkg/requestcontext"
)

// Service defines the marketplace operations the transport needs.
type Service interface {
	List(ctx context.Context, tokenID id.TokenID, seller id.Address, price float64, currency string, duration time.Duration) (*models.Listing, error)
	Purchase(ctx context.Context, listingID id.ListingID, buyer id.Address) (*models.Listing, error)
	Cancel(ctx context.Context, listingID id.ListingID, requester id.Address) error
	Browse(ctx context.Context) ([]*models.Listing, error)
	Get(ctx context.Context, listingID id.ListingID) (*models.Listing, error)
}

// Handler wires marketplace endpoints to the marketplace service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a marketplace handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts marketplace endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/listings", h.HandleList)
	r.Get("/listings", h.HandleBrowse)
	r.Get("/listings/{listingID}", h.HandleGet)
	r.Post("/listings/{listingID}/purchase", h.HandlePurchase)
	r.Post("/listings/{listingID}/cancel", h.HandleCancel)
}

// HandleList handles POST /listings requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ListRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	listing, err := h.service.List(ctx, req.ParsedTokenID(), id.Address(req.Seller), req.Price, req.Currency, req.ParsedDuration())
	if err != nil {
		h.logger.WarnContext(ctx, "listing rejected",
			"request_id", requestID,
			"token_id", req.TokenID,
			"seller", req.Seller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "listing created",
		"request_id", requestID,
		"listing_id", listing.ID,
		"token_id", listing.TokenID,
		"featured", listing.Featured,
	)

	httputil.WriteJSON(w, http.StatusCreated, FromListing(listing))
}

// HandleBrowse handles GET /listings requests.
func (h *Handler) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.Browse(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromListings(listings))
}

// HandleGet handles GET /listings/{listingID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listing, err := h.service.Get(r.Context(), listingID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromListing(listing))
}

// HandlePurchase handles POST /listings/{listingID}/purchase requests.
func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[PurchaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	listing, err := h.service.Purchase(ctx, listingID, id.Address(req.Buyer))
	if err != nil {
		h.logger.WarnContext(ctx, "purchase rejected",
			"request_id", requestID,
			"listing_id", listingID,
			"buyer", req.Buyer,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "listing purchased",
		"request_id", requestID,
		"listing_id", listingID,
		"token_id", listing.TokenID,
		"buyer", req.Buyer,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromListing(listing))
}

// HandleCancel handles POST /listings/{listingID}/cancel requests.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[CancelRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Cancel(ctx, listingID, id.Address(req.Seller)); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "listing cancelled",
		"request_id", requestID,
		"listing_id", listingID,
	)

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

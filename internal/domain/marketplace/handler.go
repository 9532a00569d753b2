package marketplace

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spacecards/economy-api/internal/middleware"
	"github.com/spacecards/economy-api/internal/pkg/errorhandler"
	"github.com/spacecards/economy-api/internal/pkg/response"
)

// Handler handles marketplace HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates marketplace handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /marketplace
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}

	listings, err := h.service.GetMarketplace(r.Context(), filter)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}

	response.WithMeta(w, listings, response.Meta{Limit: filter.Limit, Count: len(listings)})
}

// CreateListing handles POST /marketplace/listings/{ownershipID}
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	ownershipID, err := uuid.Parse(chi.URLParam(r, "ownershipID"))
	if err != nil {
		response.BadRequest(w, "Invalid ownership ID")
		return
	}

	var req ListRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	ctx := r.Context()
	listing, err := h.service.ListForSale(ctx, ownershipID, middleware.GetUserID(ctx), req.SalePrice)
	if err != nil {
		errorhandler.HandleDomainError(ctx, w, err)
		return
	}

	response.OK(w, listing)
}

// DeleteListing handles DELETE /marketplace/listings/{ownershipID}
func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	ownershipID, err := uuid.Parse(chi.URLParam(r, "ownershipID"))
	if err != nil {
		response.BadRequest(w, "Invalid ownership ID")
		return
	}

	ctx := r.Context()
	if err := h.service.Unlist(ctx, ownershipID, middleware.GetUserID(ctx)); err != nil {
		errorhandler.HandleDomainError(ctx, w, err)
		return
	}

	response.NoContent(w)
}

// Purchase handles POST /marketplace/listings/{ownershipID}/purchase
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	ownershipID, err := uuid.Parse(chi.URLParam(r, "ownershipID"))
	if err != nil {
		response.BadRequest(w, "Invalid ownership ID")
		return
	}

	ctx := r.Context()
	result, err := h.service.Purchase(ctx, ownershipID, middleware.GetUserID(ctx), middleware.GetDisplayName(ctx))
	if err != nil {
		errorhandler.HandleDomainError(ctx, w, err)
		return
	}

	response.OK(w, result)
}

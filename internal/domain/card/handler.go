package card

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spacecards/economy-api/internal/middleware"
	"github.com/spacecards/economy-api/internal/pkg/errorhandler"
	"github.com/spacecards/economy-api/internal/pkg/response"
)

// Handler handles card HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates card handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /cards
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	ctx := r.Context()
	card, err := h.service.CreateCard(ctx, middleware.GetUserID(ctx), middleware.GetDisplayName(ctx), &req)
	if err != nil {
		errorhandler.HandleDomainError(ctx, w, err)
		return
	}

	response.Created(w, card)
}

// GetByID handles GET /cards/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid card ID")
		return
	}

	card, err := h.service.GetCard(r.Context(), id)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}

	response.OK(w, card)
}

// ListByCreator handles GET /cards/creator/{creatorID}
func (h *Handler) ListByCreator(w http.ResponseWriter, r *http.Request) {
	creatorID, err := uuid.Parse(chi.URLParam(r, "creatorID"))
	if err != nil {
		response.BadRequest(w, "Invalid creator ID")
		return
	}

	cards, err := h.service.ListCardsByCreator(r.Context(), creatorID)
	if err != nil {
		errorhandler.HandleDomainError(r.Context(), w, err)
		return
	}

	response.OK(w, cards)
}

// Mint handles POST /cards/{id}/mint
func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid card ID")
		return
	}

	ctx := r.Context()
	result, err := h.service.MintCard(ctx, id, middleware.GetUserID(ctx), middleware.GetDisplayName(ctx))
	if err != nil {
		errorhandler.HandleDomainError(ctx, w, err)
		return
	}

	response.Created(w, result)
}

// Owned handles GET /cards/owned
func (h *Handler) Owned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owned, err := h.service.ListOwnedCards(ctx, middleware.GetUserID(ctx))
	if err != nil {
		errorhandler.HandleDomainError(ctx, w, err)
		return
	}

	response.OK(w, owned)
}

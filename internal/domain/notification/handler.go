package notification

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spacecards/economy-api/internal/middleware"
	"github.com/spacecards/economy-api/internal/pkg/errorhandler"
	"github.com/spacecards/economy-api/internal/pkg/response"
)

// Handler serves the card activity inbox.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Inbox handles GET /notifications?unread=true&limit&offset
func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	unreadOnly, _ := strconv.ParseBool(q.Get("unread"))

	inbox, err := h.service.Inbox(ctx, middleware.GetUserID(ctx), unreadOnly, limit, offset)
	if err != nil {
		errorhandler.HandleDomainError(ctx, w, err)
		return
	}
	response.OK(w, inbox)
}

// MarkAsRead handles POST /notifications/{id}/read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	ctx := r.Context()
	result, err := h.service.MarkAsRead(ctx, id, middleware.GetUserID(ctx))
	if err != nil {
		errorhandler.HandleDomainError(ctx, w, err)
		return
	}
	response.OK(w, result)
}

// MarkAllAsRead handles POST /notifications/read-all
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.service.MarkAllAsRead(ctx, middleware.GetUserID(ctx))
	if err != nil {
		errorhandler.HandleDomainError(ctx, w, err)
		return
	}
	response.OK(w, result)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.Inbox)
	r.Post("/{id}/read", h.MarkAsRead)
	r.Post("/read-all", h.MarkAllAsRead)

	return r
}

package card

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns card router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Public routes
	r.Get("/creator/{creatorID}", h.ListByCreator)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/owned", h.Owned)
		r.Post("/{id}/mint", h.Mint)
	})

	r.Get("/{id}", h.GetByID)

	return r
}

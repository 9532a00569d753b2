package marketplace

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns marketplace router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Public routes
	r.Get("/", h.List)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/listings/{ownershipID}", h.CreateListing)
		r.Delete("/listings/{ownershipID}", h.DeleteListing)
		r.Post("/listings/{ownershipID}/purchase", h.Purchase)
	})

	return r
}

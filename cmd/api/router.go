package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/spacecards/economy-api/internal/domain/card"
	"github.com/spacecards/economy-api/internal/domain/marketplace"
	"github.com/spacecards/economy-api/internal/domain/notification"
	"github.com/spacecards/economy-api/internal/domain/wallet"
	"github.com/spacecards/economy-api/internal/middleware"
	pkgresponse "github.com/spacecards/economy-api/internal/pkg/response"
)

// requestTimeout bounds a request including transaction retries.
const requestTimeout = 30 * time.Second

type routerConfig struct {
	AllowedOrigins []string
	Auth           func(http.Handler) http.Handler

	Wallets       *wallet.Handler
	Cards         *card.Handler
	Marketplace   *marketplace.Handler
	Notifications *notification.Handler
}

func newRouter(cfg routerConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/wallet", cfg.Wallets.Routes(cfg.Auth))
		r.Mount("/cards", cfg.Cards.Routes(cfg.Auth))
		r.Mount("/marketplace", cfg.Marketplace.Routes(cfg.Auth))
		r.Mount("/notifications", cfg.Notifications.Routes(cfg.Auth))
	})

	return r
}

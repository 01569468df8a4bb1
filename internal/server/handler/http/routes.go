package http

import (
	"net/http"

	"github.com/atinyakov/AgriVision/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the local
// API under /api.
//
// Middleware chain (applied in order):
//  1. RequestID and Recoverer
//  2. LoopbackOnly: rejects requests from other machines
//  3. WithRequestLogging(logger)
//  4. Locale: negotiates Accept-Language
//
// JSON endpoints only accept application/json bodies; /api/detect only
// accepts multipart/form-data.
func NewRouter(h *AppHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.LoopbackOnly)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.Locale)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.State)
		r.Get("/languages", h.Languages)
		r.Get("/home", h.Home)
		r.Get("/history", h.History)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/language", h.SelectLanguage)
			r.Post("/auth/otp", h.RequestOTP)
			r.Post("/auth/verify", h.VerifyOTP)
			r.Post("/navigate", h.Navigate)
			r.Post("/back", h.Back)
			r.Post("/profit", h.Profit)
			r.Put("/profile", h.UpdateProfile)
			r.Post("/logout", h.Logout)
		})

		r.With(chiMiddleware.AllowContentType("multipart/form-data")).Post("/detect", h.Detect)
	})

	return r
}

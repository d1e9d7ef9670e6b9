package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/StudyCore/studycore/internal/middleware"
)

func SetupRoutes(h *Handler, resolver middleware.StateResolver, limiter *middleware.IPRateLimiter) http.Handler {
	r := chi.NewRouter()

	r.With(limiter.Middleware).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(resolver))
		r.Get("/me", h.Me)
		r.Get("/navigate", h.Navigate)
	})

	return r
}

package ai

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/StudyCore/studycore/internal/middleware"
)

func SetupRoutes(h *Handler, resolver middleware.StateResolver) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(resolver))
	r.Use(middleware.RequireAuthenticated)

	r.Get("/status", h.Status)
	r.Post("/chat", h.Chat)

	return r
}

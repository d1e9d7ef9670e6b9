package upload

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/StudyCore/studycore/internal/middleware"
)

func SetupRoutes(h *Handler, resolver middleware.StateResolver) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(resolver))
	r.With(middleware.RequireAuthenticated).Post("/", h.Upload)
	return r
}

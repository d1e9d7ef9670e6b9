package attendance

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/StudyCore/studycore/internal/middleware"
	"github.com/StudyCore/studycore/internal/models"
)

func SetupRoutes(h *Handler, resolver middleware.StateResolver) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(resolver))

	r.With(middleware.RequireAuthenticated).Post("/log", h.LogVisit)
	r.With(middleware.RequireRoles(models.RoleCreator, models.RoleAdmin)).Get("/", h.Summary)

	return r
}

package profiles

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/StudyCore/studycore/internal/middleware"
	"github.com/StudyCore/studycore/internal/models"
)

func SetupRoutes(h *Handler, resolver middleware.StateResolver) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(resolver))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})

	r.With(middleware.RequireRoles(models.RoleCreator)).Patch("/{id}/role", h.UpdateRole)

	return r
}

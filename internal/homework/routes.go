package homework

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/StudyCore/studycore/internal/access"
	"github.com/StudyCore/studycore/internal/middleware"
	"github.com/StudyCore/studycore/internal/models"
)

func SetupRoutes(h *Handler, resolver middleware.StateResolver, hierarchy access.Hierarchy) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(resolver))

	r.With(middleware.RequireAuthenticated).Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAtLeast(hierarchy, models.RoleTeacher))
		r.Post("/", h.Create)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

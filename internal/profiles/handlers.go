package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/StudyCore/studycore/internal/access"
	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/session"
	"github.com/StudyCore/studycore/internal/utils"
)

// Repository is what the handlers need from Store.
type Repository interface {
	FindProfileByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfileRole(ctx context.Context, id, role string) (*models.Profile, error)
	List(ctx context.Context, limit int) ([]models.Profile, error)
}

// Notifier tells live sessions of a user that their profile changed.
type Notifier interface {
	NotifyProfileChanged(ctx context.Context, userID string)
}

type Handler struct {
	repo      Repository
	hierarchy access.Hierarchy
	notifier  Notifier
}

func NewHandler(repo Repository, hierarchy access.Hierarchy, notifier Notifier) *Handler {
	return &Handler{repo: repo, hierarchy: hierarchy, notifier: notifier}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	list, err := h.repo.List(r.Context(), limit)
	if err != nil {
		log.Printf("[profiles] list failed: %v", err)
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.FindProfileByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, session.ErrProfileNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[profiles] get failed: %v", err)
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

type roleRequest struct {
	Role string `json:"role" validate:"required,notblank"`
}

// UpdateRole sets another user's role. Creator rows never change and the
// Creator role is never handed out.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(req); err != nil {
		http.Error(w, utils.ValidationMessage(err), http.StatusBadRequest)
		return
	}

	role, ok := h.hierarchy.Canonical(req.Role)
	if !ok {
		http.Error(w, "Unknown role: "+req.Role, http.StatusBadRequest)
		return
	}
	if access.Normalize(role) == access.Normalize(models.RoleCreator) {
		http.Error(w, "Forbidden: the Creator role cannot be granted", http.StatusForbidden)
		return
	}

	id := chi.URLParam(r, "id")
	target, err := h.repo.FindProfileByID(r.Context(), id)
	if errors.Is(err, session.ErrProfileNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[profiles] lookup before role update failed: %v", err)
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	if access.Authorize(target, []string{models.RoleCreator}) == access.Allow {
		http.Error(w, "Forbidden: a Creator's role cannot be changed", http.StatusForbidden)
		return
	}

	updated, err := h.repo.UpdateProfileRole(r.Context(), id, role)
	if errors.Is(err, session.ErrProfileNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[profiles] role update failed: %v", err)
		http.Error(w, "Failed to update role", http.StatusInternalServerError)
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyProfileChanged(r.Context(), id)
	}
	log.Printf("[profiles] %s set role of %s to %s", actor(r), id, role)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

func actor(r *http.Request) string {
	if id, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return id
	}
	return "unknown"
}

package homework

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"

	"github.com/StudyCore/studycore/internal/utils"
)

type Repository interface {
	List(ctx context.Context) ([]Homework, error)
	Create(ctx context.Context, hw *Homework) error
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	repo Repository
	now  func() time.Time
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo, now: time.Now}
}

type createRequest struct {
	Title       string   `json:"title" validate:"required,notblank,max=200"`
	Description string   `json:"description" validate:"max=10000"`
	Attachments []string `json:"attachments" validate:"max=20,dive,required,max=2048"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		log.Printf("[homework] list failed: %v", err)
		http.Error(w, "Failed to load homework", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Homework{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(req); err != nil {
		http.Error(w, utils.ValidationMessage(err), http.StatusBadRequest)
		return
	}

	author, _ := utils.GetUserIDFromContext(r.Context())
	hw := Homework{
		ID:          utils.GenerateUUID(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Attachments: pq.StringArray(req.Attachments),
		CreatedBy:   author,
		CreatedAt:   h.now(),
	}
	if hw.Attachments == nil {
		hw.Attachments = pq.StringArray{}
	}

	if err := h.repo.Create(r.Context(), &hw); err != nil {
		log.Printf("[homework] create failed: %v", err)
		http.Error(w, "Failed to create homework", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(hw)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.repo.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Homework not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[homework] delete failed: %v", err)
		http.Error(w, "Failed to delete homework", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

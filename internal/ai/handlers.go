package ai

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/StudyCore/studycore/internal/utils"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"available": h.client.Available()})
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(req); err != nil {
		http.Error(w, utils.ValidationMessage(err), http.StatusBadRequest)
		return
	}

	resp, err := h.client.Chat(r.Context(), req)
	if errors.Is(err, ErrUnavailable) {
		http.Error(w, "AI assistant is not available", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		log.Printf("[ai] chat failed: %v", err)
		http.Error(w, "AI assistant failed to answer", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

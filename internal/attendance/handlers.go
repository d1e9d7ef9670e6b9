package attendance

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/StudyCore/studycore/internal/session"
	"github.com/StudyCore/studycore/internal/utils"
)

// Journal is the storage the endpoints read and write.
type Journal interface {
	Heartbeat(ctx context.Context, hb session.Heartbeat) error
	DailyCounts(ctx context.Context, since time.Time) (map[string]int, error)
}

type Handler struct {
	journal Journal
	now     func() time.Time
}

func NewHandler(journal Journal) *Handler {
	return &Handler{journal: journal, now: time.Now}
}

// LogVisit records the caller as present today.
func (h *Handler) LogVisit(w http.ResponseWriter, r *http.Request) {
	st := utils.AuthStateFromContext(r.Context())
	if !st.Authenticated() {
		http.Error(w, "Unauthorized: sign in required", http.StatusUnauthorized)
		return
	}

	hb := session.Heartbeat{
		UserID:   st.Principal.ID,
		Username: st.Profile.Username,
		Role:     st.Profile.Role,
	}
	if err := h.journal.Heartbeat(r.Context(), hb); err != nil {
		log.Printf("[attendance] log failed for %s: %v", hb.UserID, err)
		http.Error(w, "Failed to record attendance", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	days, err := ParseDays(r.URL.Query().Get("days"))
	if err != nil {
		http.Error(w, "Invalid days parameter", http.StatusBadRequest)
		return
	}

	now := h.now()
	counts, err := h.journal.DailyCounts(r.Context(), WindowStart(now, days))
	if err != nil {
		log.Printf("[attendance] summary failed: %v", err)
		http.Error(w, "Failed to load attendance", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(FillDays(counts, days, now))
}

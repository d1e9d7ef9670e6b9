package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/StudyCore/studycore/internal/access"
	"github.com/StudyCore/studycore/internal/middleware"
	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/session"
	"github.com/StudyCore/studycore/internal/utils"
)

// Identity is the part of Service the handlers call.
type Identity interface {
	SignIn(ctx context.Context, c Credentials) (*models.Session, error)
	Refresh(ctx context.Context, token string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
}

// SessionStates is the registry of resolved session tokens.
type SessionStates interface {
	Resolve(ctx context.Context, token string) session.State
	Forget(token string)
}

type Handler struct {
	identity     Identity
	states       SessionStates
	policy       *access.Policy
	secureCookie bool
}

func NewHandler(identity Identity, states SessionStates, policy *access.Policy, secureCookie bool) *Handler {
	return &Handler{identity: identity, states: states, policy: policy, secureCookie: secureCookie}
}

type MeResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func meResponse(st session.State) MeResponse {
	return MeResponse{
		UserID:   st.Principal.ID,
		Email:    st.Principal.Email,
		Username: st.Profile.Username,
		Role:     st.Profile.Role,
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookie,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookie,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Invalid Data", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(creds); err != nil {
		http.Error(w, utils.ValidationMessage(err), http.StatusBadRequest)
		return
	}

	sess, err := h.identity.SignIn(r.Context(), creds)
	if errors.Is(err, ErrInvalidCredentials) {
		http.Error(w, "Invalid Credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("[auth] sign-in failed: %v", err)
		http.Error(w, "Server error signing in", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)

	st := h.states.Resolve(r.Context(), sess.Token)
	if !st.Authenticated() {
		http.Error(w, "Signed in, but the profile could not be loaded; try again", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meResponse(st))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionToken(r)
	if token == "" {
		http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
		return
	}

	err := h.identity.SignOut(r.Context(), token)
	h.states.Forget(token)
	h.clearSessionCookie(w)

	if errors.Is(err, ErrSessionNotFound) {
		http.Error(w, "Couldn't find session", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("[auth] sign-out failed: %v", err)
		http.Error(w, "Server error signing out", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logout successful"})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionToken(r)
	sess, err := h.identity.Refresh(r.Context(), token)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "Couldn't find session", http.StatusUnauthorized)
		return
	case errors.Is(err, ErrSessionExpired):
		h.states.Forget(token)
		http.Error(w, "Session expired", http.StatusUnauthorized)
		return
	case err != nil:
		log.Printf("[auth] refresh failed: %v", err)
		http.Error(w, "Server error refreshing session", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]time.Time{"expires_at": sess.ExpiresAt})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	st := utils.AuthStateFromContext(r.Context())
	if !st.Authenticated() {
		http.Error(w, "Unauthorized: sign in required", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meResponse(st))
}

type NavigateResponse struct {
	Target   string `json:"target"`
	Decision string `json:"decision"`
	Location string `json:"location,omitempty"`
}

// Navigate tells the client whether the current profile may open ?to=.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("to")
	if target == "" {
		http.Error(w, "Missing navigation target", http.StatusBadRequest)
		return
	}

	d := h.policy.Navigate(utils.ProfileFromContext(r.Context()), target)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(NavigateResponse{
		Target:   target,
		Decision: d.String(),
		Location: h.policy.Location(d),
	})
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/StudyCore/studycore/internal/access"
	"github.com/StudyCore/studycore/internal/session"
	"github.com/StudyCore/studycore/internal/utils"
)

const SessionCookieName = "session_id"

// StateResolver turns a session token into the published auth state.
type StateResolver interface {
	Resolve(ctx context.Context, token string) session.State
}

// SessionToken reads the session cookie, falling back to a bearer token.
func SessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// SessionMiddleware attaches the auth state for the request's token. It never
// rejects; the Require* gates below decide.
func SessionMiddleware(resolver StateResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := resolver.Resolve(r.Context(), SessionToken(r))
			ctx := utils.WithAuthState(r.Context(), st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if utils.ProfileFromContext(r.Context()) == nil {
			http.Error(w, "Unauthorized: sign in required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles admits only profiles whose role is one of roles.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch access.Authorize(utils.ProfileFromContext(r.Context()), roles) {
			case access.Allow:
				next.ServeHTTP(w, r)
			case access.RedirectLogin:
				http.Error(w, "Unauthorized: sign in required", http.StatusUnauthorized)
			default:
				http.Error(w, "Forbidden: "+strings.Join(roles, " or ")+" access required", http.StatusForbidden)
			}
		})
	}
}

// RequireAtLeast admits profiles ranked at or above role in h.
func RequireAtLeast(h access.Hierarchy, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := utils.ProfileFromContext(r.Context())
			if p == nil {
				http.Error(w, "Unauthorized: sign in required", http.StatusUnauthorized)
				return
			}
			if !h.AtLeast(p, role) {
				http.Error(w, "Forbidden: "+role+" access required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS admits credentialed requests from origins only.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

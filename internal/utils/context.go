package utils

import (
	"context"

	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/session"
)

type contextKey string

const ContextAuthStateKey contextKey = "authState"

func WithAuthState(ctx context.Context, st session.State) context.Context {
	return context.WithValue(ctx, ContextAuthStateKey, st)
}

// AuthStateFromContext returns the state attached by the session middleware,
// or an Unauthenticated state when none is attached.
func AuthStateFromContext(ctx context.Context) session.State {
	st, _ := ctx.Value(ContextAuthStateKey).(session.State)
	return st
}

// ProfileFromContext returns nil unless the request is authenticated.
func ProfileFromContext(ctx context.Context) *models.Profile {
	st := AuthStateFromContext(ctx)
	if !st.Authenticated() {
		return nil
	}
	return st.Profile
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	st := AuthStateFromContext(ctx)
	if !st.Authenticated() {
		return "", false
	}
	return st.Principal.ID, true
}

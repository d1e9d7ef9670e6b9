package auth

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/session"
)

const lookupTimeout = 5 * time.Second

// SessionLookup is the read side of Service.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (*models.Session, error)
}

// TokenAuth presents one session token as a session.AuthService.
type TokenAuth struct {
	lookup SessionLookup
	hub    Hub
	token  string
	digest string
	userID atomic.Value // string, set once the token resolves
}

func NewTokenAuth(lookup SessionLookup, hub Hub, token string) *TokenAuth {
	return &TokenAuth{
		lookup: lookup,
		hub:    hub,
		token:  token,
		digest: TokenDigest(token),
	}
}

// GetSession maps a missing or expired session to (nil, nil).
func (a *TokenAuth) GetSession(ctx context.Context) (*models.Session, error) {
	sess, err := a.lookup.Lookup(ctx, a.token)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.userID.Store(sess.Principal.ID)
	return sess, nil
}

// OnSessionChange calls fn with the re-read session whenever an event
// concerns this token or its user, and with nil once the token is gone.
func (a *TokenAuth) OnSessionChange(fn func(*models.Session)) session.Subscription {
	if a.hub == nil {
		return session.SubscriptionFunc(func() {})
	}

	cancel := a.hub.Subscribe(func(e Event) {
		if !a.concerns(e) {
			return
		}
		if e.Kind == SignedOut {
			fn(nil)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		sess, err := a.GetSession(ctx)
		if err != nil {
			log.Printf("[auth] re-reading session after %s: %v", e.Kind, err)
			fn(nil)
			return
		}
		fn(sess)
	})
	return session.SubscriptionFunc(cancel)
}

func (a *TokenAuth) concerns(e Event) bool {
	if e.Session != "" {
		return e.Session == a.digest
	}
	uid, _ := a.userID.Load().(string)
	return uid != "" && e.UserID == uid
}

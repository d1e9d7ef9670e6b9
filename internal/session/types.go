// Package session keeps the current (principal, profile) pair in step with
// the auth service and provisions profiles on first sight of a principal.
package session

import (
	"context"
	"errors"

	"github.com/StudyCore/studycore/internal/models"
)

var (
	// ErrProfileNotFound is returned by a ProfileStore lookup for an unknown id.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrConstraintViolation is returned by InsertProfile when the id already exists.
	ErrConstraintViolation = errors.New("profile already exists")
)

// AuthService is the slice of the identity backend the bootstrapper needs.
// GetSession returns (nil, nil) when nobody is signed in; an error means the
// service could not be reached.
type AuthService interface {
	GetSession(ctx context.Context) (*models.Session, error)
	OnSessionChange(fn func(*models.Session)) Subscription
}

type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a plain func to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }

type ProfileStore interface {
	FindProfileByID(ctx context.Context, id string) (*models.Profile, error)
	InsertProfile(ctx context.Context, p models.Profile) (*models.Profile, error)
	UpdateProfileRole(ctx context.Context, id, role string) (*models.Profile, error)
}

// Heartbeat is the attendance record sent after each successful resolution.
type Heartbeat struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Telemetry receives heartbeats. Errors are logged by the caller and dropped.
type Telemetry interface {
	Heartbeat(ctx context.Context, hb Heartbeat) error
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/StudyCore/studycore/internal/models"
)

var ErrNoPrincipalID = errors.New("principal has no id")

// DefaultUsername picks the metadata username, then the email local part, then "User".
func DefaultUsername(p models.Principal) string {
	if name := strings.TrimSpace(p.Username); name != "" {
		return name
	}
	if local := strings.TrimSpace(strings.SplitN(p.Email, "@", 2)[0]); local != "" {
		return local
	}
	return "User"
}

// EnsureProfile returns the profile for p, creating a Student profile if none
// exists. Losing an insert race to a concurrent caller is not an error: the
// winner's row is read back and returned.
func EnsureProfile(ctx context.Context, store ProfileStore, p models.Principal) (*models.Profile, error) {
	if p.ID == "" {
		return nil, ErrNoPrincipalID
	}

	existing, err := store.FindProfileByID(ctx, p.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, fmt.Errorf("looking up profile %s: %w", p.ID, err)
	}

	created, err := store.InsertProfile(ctx, models.Profile{
		ID:       p.ID,
		Username: DefaultUsername(p),
		Role:     models.RoleStudent,
	})
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, ErrConstraintViolation) {
		return nil, fmt.Errorf("creating profile %s: %w", p.ID, err)
	}

	winner, err := store.FindProfileByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("re-reading profile %s after duplicate insert: %w", p.ID, err)
	}
	return winner, nil
}

package profiles

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/StudyCore/studycore/internal/db"
	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/session"
)

// DefaultListLimit caps GET /api/users when no limit is given.
const DefaultListLimit = 200

// Store is the gorm-backed session.ProfileStore.
type Store struct {
	db *gorm.DB
}

func NewStore(d *gorm.DB) *Store {
	return &Store{db: d}
}

func (s *Store) FindProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, session.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding profile: %w", err)
	}
	return &p, nil
}

// InsertProfile creates p. A row that already holds p.ID yields
// session.ErrConstraintViolation.
func (s *Store) InsertProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, session.ErrConstraintViolation
		}
		return nil, fmt.Errorf("inserting profile: %w", err)
	}
	return &p, nil
}

func (s *Store) UpdateProfileRole(ctx context.Context, id, role string) (*models.Profile, error) {
	res := s.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return nil, fmt.Errorf("updating role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, session.ErrProfileNotFound
	}
	return s.FindProfileByID(ctx, id)
}

// List returns up to limit profiles ordered by username.
func (s *Store) List(ctx context.Context, limit int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var out []models.Profile
	err := s.db.WithContext(ctx).Order("username ASC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return out, nil
}

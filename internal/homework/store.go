package homework

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("homework not found")

type Store struct {
	db *gorm.DB
}

func NewStore(d *gorm.DB) *Store {
	return &Store{db: d}
}

// List returns every assignment, newest first.
func (s *Store) List(ctx context.Context) ([]Homework, error) {
	var out []Homework
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing homework: %w", err)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, hw *Homework) error {
	if err := s.db.WithContext(ctx).Create(hw).Error; err != nil {
		return fmt.Errorf("creating homework: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Homework{})
	if res.Error != nil {
		return fmt.Errorf("deleting homework: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package seeds

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/StudyCore/studycore/internal/access"
	"github.com/StudyCore/studycore/internal/auth"
	"github.com/StudyCore/studycore/internal/homework"
	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/profiles"
	"github.com/StudyCore/studycore/internal/session"
	"github.com/StudyCore/studycore/internal/utils"
)

//go:embed demo.json
var demoData []byte

type DemoUser struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type DemoHomework struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
}

type Dataset struct {
	Users    []DemoUser     `json:"users"`
	Homework []DemoHomework `json:"homework"`
}

// LoadDemo parses the embedded demo dataset and checks every role against h.
func LoadDemo(h access.Hierarchy) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(demoData, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse demo.json: %w", err)
	}
	for i, u := range ds.Users {
		role, ok := h.Canonical(u.Role)
		if !ok {
			return nil, fmt.Errorf("demo user %s: unknown role %q", u.Email, u.Role)
		}
		ds.Users[i].Role = role
	}
	return &ds, nil
}

// SeedAll creates the demo accounts, their profiles and sample homework.
// Accounts that already exist are left as they are.
func SeedAll(ctx context.Context, d *gorm.DB, ds *Dataset, password string) error {
	svc := auth.NewService(d, nil, 0)
	store := profiles.NewStore(d)
	ids := make(map[string]string, len(ds.Users))

	for _, u := range ds.Users {
		user, err := svc.CreateUser(ctx, u.Email, password, u.Username)
		if errors.Is(err, auth.ErrEmailTaken) {
			log.Printf("⚠️ User exists, skipping: %s", u.Email)
			var existing auth.User
			if err := d.WithContext(ctx).First(&existing, "email = ?", u.Email).Error; err == nil {
				ids[u.Email] = existing.UserID
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
		ids[u.Email] = user.UserID

		profile, err := session.EnsureProfile(ctx, store, models.Principal{
			ID:       user.UserID,
			Email:    user.Email,
			Username: user.Username,
		})
		if err != nil {
			return fmt.Errorf("failed to create profile for %s: %w", u.Email, err)
		}
		if profile.Role != u.Role {
			if _, err := store.UpdateProfileRole(ctx, user.UserID, u.Role); err != nil {
				return fmt.Errorf("failed to set role for %s: %w", u.Email, err)
			}
		}
	}
	log.Printf("✅ Seeded %d users", len(ds.Users))

	hw := homework.NewStore(d)
	created := 0
	for _, item := range ds.Homework {
		var count int64
		if err := d.WithContext(ctx).Model(&homework.Homework{}).Where("title = ?", item.Title).Count(&count).Error; err != nil {
			return fmt.Errorf("DB error on homework %s: %w", item.Title, err)
		}
		if count > 0 {
			log.Printf("⚠️ Homework exists, skipping: %s", item.Title)
			continue
		}

		if err := hw.Create(ctx, &homework.Homework{
			ID:          utils.GenerateUUID(),
			Title:       item.Title,
			Description: item.Description,
			Attachments: []string{},
			CreatedBy:   ids[item.Author],
		}); err != nil {
			return err
		}
		created++
	}
	log.Printf("✅ Seeded %d homework items", created)
	return nil
}

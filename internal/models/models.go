package models

import "time"

// Role names as stored in profile rows. Comparisons against these go through
// the access package; stored values may carry stray case or whitespace.
const (
	RoleStudent = "Student"
	RoleTeacher = "Teacher"
	RoleCreator = "Creator"
	RoleAdmin   = "Admin"
)

// Principal is the identity the auth service hands back for a live session.
type Principal struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"` // metadata, may be empty
}

// Session pairs a principal with its validity window. It is owned by the
// auth service; nothing outside internal/auth persists it.
type Session struct {
	Token     string    `json:"-"`
	Principal Principal `json:"principal"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Profile is the application-owned record keyed 1:1 by principal id.
type Profile struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"not null" json:"username"`
	Role      string    `gorm:"not null;default:'Student'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "app_auth.profiles" }

package auth

import "time"

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

type User struct {
	UserID         string `gorm:"primaryKey" json:"user_id"`
	Email          string `gorm:"not null;uniqueIndex" json:"email"`
	Username       string `json:"username"` // sign-up metadata, may be blank
	HashedPassword string `json:"-"`
	CreatedAt      time.Time
}

func (Session) TableName() string { return "app_auth.sessions" }
func (User) TableName() string    { return "app_auth.users" }

package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/StudyCore/studycore/internal/db"
	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrEmailTaken         = errors.New("email already registered")
)

const DefaultSessionTTL = 6 * time.Hour

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,notblank"`
}

// Service is the identity backend: it checks passwords, issues and expires
// sessions, and announces every change on its Hub.
type Service struct {
	db  *gorm.DB
	hub Hub
	ttl time.Duration
	now func() time.Time
}

func NewService(d *gorm.DB, hub Hub, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{db: d, hub: hub, ttl: ttl, now: time.Now}
}

func (s *Service) Hub() Hub { return s.hub }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) CreateUser(ctx context.Context, email, password, username string) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := User{
		UserID:         utils.GenerateUUID(),
		Email:          normalizeEmail(email),
		Username:       strings.TrimSpace(username),
		HashedPassword: string(hashed),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &user, nil
}

// SignIn verifies the password and opens a new session.
func (s *Service) SignIn(ctx context.Context, c Credentials) (*models.Session, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(c.Email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(c.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sess := Session{
		SessionID: utils.GenerateUUID(),
		UserID:    user.UserID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.announce(ctx, Event{Kind: SignedIn, Session: TokenDigest(sess.SessionID), UserID: user.UserID})
	return toModel(sess, user), nil
}

// Lookup returns the live session for token. Expired sessions are deleted.
func (s *Service) Lookup(ctx context.Context, token string) (*models.Session, error) {
	sess, err := s.findSession(ctx, token)
	if err != nil {
		return nil, err
	}

	var user User
	err = s.db.WithContext(ctx).First(&user, "user_id = ?", sess.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return toModel(*sess, user), nil
}

func (s *Service) Refresh(ctx context.Context, token string) (*models.Session, error) {
	sess, err := s.findSession(ctx, token)
	if err != nil {
		return nil, err
	}

	expires := s.now().Add(s.ttl)
	if err := s.db.WithContext(ctx).Model(sess).Update("expires_at", expires).Error; err != nil {
		return nil, fmt.Errorf("extending session: %w", err)
	}

	s.announce(ctx, Event{Kind: Refreshed, Session: TokenDigest(token), UserID: sess.UserID})
	return s.Lookup(ctx, token)
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	res := s.db.WithContext(ctx).Where("session_id = ?", token).Delete(&Session{})
	if res.Error != nil {
		return fmt.Errorf("deleting session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	s.announce(ctx, Event{Kind: SignedOut, Session: TokenDigest(token)})
	return nil
}

// NotifyProfileChanged tells every live session of userID to re-resolve.
func (s *Service) NotifyProfileChanged(ctx context.Context, userID string) {
	s.announce(ctx, Event{Kind: ProfileChanged, UserID: userID})
}

// ForToken returns the AuthService view of a single session token.
func (s *Service) ForToken(token string) *TokenAuth {
	return NewTokenAuth(s, s.hub, token)
}

func (s *Service) findSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	var sess Session
	err := s.db.WithContext(ctx).First(&sess, "session_id = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}

	if sess.ExpiresAt.Before(s.now()) {
		if err := s.db.WithContext(ctx).Delete(&sess).Error; err != nil {
			log.Printf("[auth] failed to delete expired session: %v", err)
		}
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

// announce publishes e; a lost event only delays other instances, so it is logged.
func (s *Service) announce(ctx context.Context, e Event) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Publish(ctx, e); err != nil {
		log.Printf("[auth] publishing %s event failed: %v", e.Kind, err)
	}
}

func toModel(sess Session, user User) *models.Session {
	return &models.Session{
		Token: sess.SessionID,
		Principal: models.Principal{
			ID:       user.UserID,
			Email:    user.Email,
			Username: user.Username,
		},
		ExpiresAt: sess.ExpiresAt,
	}
}

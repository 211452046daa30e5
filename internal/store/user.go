package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/diewo77/go-billing/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStore backs identity resolution for sessions and bearer tokens.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a user without a password; such accounts cannot log in.
func (s *UserStore) Create(ctx context.Context, u models.User) (models.User, error) {
	return s.Register(ctx, u, "")
}

// Register inserts a user with an already hashed password.
func (s *UserStore) Register(ctx context.Context, u models.User, passwordHash string) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	rec := userRecord{ID: u.ID, Email: normalizeEmail(u.Email), FirstName: u.FirstName, LastName: u.LastName, PasswordHash: passwordHash}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return rec.toModel(), nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return rec.toModel(), nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	u, _, err := s.Credentials(ctx, email)
	return u, err
}

// Credentials returns the user registered under email with its password hash.
func (s *UserStore) Credentials(ctx context.Context, email string) (models.User, string, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&rec).Error; err != nil {
		return models.User{}, "", notFound(err)
	}
	return rec.toModel(), rec.PasswordHash, nil
}

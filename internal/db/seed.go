package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/diewo77/go-billing/internal/models"
	"github.com/diewo77/go-billing/internal/store"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Credentials of the account created by Seed.
const (
	DemoUserEmail    = "demo@facturation.local"
	DemoUserPassword = "demo-password"
)

// Seed creates a demo user with two clients. Running it twice is a no-op.
func Seed(ctx context.Context, db *gorm.DB) (models.User, error) {
	users := store.NewUserStore(db)
	clients := store.NewClientStore(db)

	u, err := users.FindByEmail(ctx, DemoUserEmail)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoUserPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	u, err = users.Register(ctx, models.User{Email: DemoUserEmail, FirstName: "Camille", LastName: "Martin"}, string(hash))
	if err != nil {
		return models.User{}, err
	}
	base := []models.ClientInfo{
		{Firstname: "Jeanne", Lastname: "Durand", ActivityName: "Atelier Durand", Address: "12 rue des Lilas, 69003 Lyon", Email: "jeanne@atelier-durand.fr", LegalStatus: "EI"},
		{Firstname: "Paul", Lastname: "Bernard", ActivityName: "Bernard Conseil", Address: "4 place Bellecour, 69002 Lyon", Email: "contact@bernard-conseil.fr", LegalStatus: "SAS"},
	}
	for _, info := range base {
		if _, err := clients.Create(ctx, models.Client{ClientInfo: info, UserID: u.ID}); err != nil {
			return models.User{}, fmt.Errorf("seed client %s: %w", info.Lastname, err)
		}
	}
	slog.InfoContext(ctx, "seeded demo data", "user_id", u.ID)
	return u, nil
}

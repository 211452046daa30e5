package auth

//go:generate mockgen -source=identity.go -destination=mocks/identity.go -package=mocks

import (
	"context"

	"github.com/diewo77/go-billing/internal/models"
)

// Identity is the authenticated caller.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// User converts the identity into the acting user handed to use cases.
func (i Identity) User() models.User {
	return models.User{ID: i.ID, Email: i.Email, FirstName: i.FirstName, LastName: i.LastName}
}

func identityOf(u models.User) Identity {
	return Identity{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// UserFinder loads users by id.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// IdentityProvider yields the caller of the current request.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (Identity, error)
}

// ContextProvider reads the identity resolved by Middleware.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}

package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user: not found")
	ErrEmailTaken = errors.New("user: email already registered")
)

// Well-known role names, seeded the same way the admin tooling expects them.
const (
	RoleSuperAdmin     = "super_admin"
	RoleProductManager = "product_manager"
	RoleUserManager    = "user_manager"
	RoleClient         = "client"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Roles        []string
	// TokenVersion invalidates previously issued credentials when bumped.
	TokenVersion int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func New(id, name, email, passwordHash string) (*User, error) {
	if id == "" || email == "" {
		return nil, errors.New("user: id and email are required")
	}

	now := time.Now().UTC()
	return &User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		TokenVersion: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Repository interface {
	Insert(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Count(ctx context.Context) (int, error)
	// BumpTokenVersion revokes all outstanding credentials for the user and
	// returns the new version.
	BumpTokenVersion(ctx context.Context, id string) (int, error)
}

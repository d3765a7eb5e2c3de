package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Create returns ErrEmailTaken when the email uniqueness
	// constraint rejects the insert.
	Create(ctx context.Context, name, email string, role Role, passwordHash string) (*User, error)
}

package users

import (
	"context"
	"errors"
)

var (
	// ErrNotFound reports an unknown user id or email.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail reports a create against an email already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repo persists user accounts.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

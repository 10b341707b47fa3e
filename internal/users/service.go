package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Roshanbtech/Extractify/internal/shared/apperror"
	"github.com/Roshanbtech/Extractify/internal/shared/auth"
)

const minPasswordLength = 6

// Service implements account registration and credential checks.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Register creates a new account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	if name == "" {
		return User{}, apperror.New(apperror.Validation, "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, apperror.New(apperror.Validation, "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return User{}, apperror.New(apperror.Validation, "password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, apperror.Wrap(apperror.Dependency, "failed to hash password", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return User{}, apperror.New(apperror.Validation, "user already exists")
		}
		return User{}, apperror.Wrap(apperror.Dependency, "failed to create user", err)
	}
	return user, nil
}

// Authenticate verifies credentials and returns the user with a signed
// access token. Unknown emails and wrong passwords are indistinguishable
// to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return User{}, "", apperror.New(apperror.Validation, "email and password are required")
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return User{}, "", apperror.New(apperror.Unauthenticated, "invalid credentials")
	}
	if err != nil {
		return User{}, "", apperror.Wrap(apperror.Dependency, "failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, "", apperror.New(apperror.Unauthenticated, "invalid credentials")
	}

	token, err := auth.SignToken(user.ID, user.Email)
	if err != nil {
		return User{}, "", apperror.Wrap(apperror.Dependency, "failed to sign token", err)
	}
	return user, token, nil
}

// Get returns the account for an authenticated user id.
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	if userID == "" {
		return User{}, apperror.New(apperror.Unauthenticated, "user identity required")
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return User{}, apperror.New(apperror.Unauthenticated, "account no longer exists")
	}
	if err != nil {
		return User{}, apperror.Wrap(apperror.Dependency, "failed to load user", err)
	}
	return user, nil
}

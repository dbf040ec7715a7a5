package domain

import (
	"context"
	"errors"
	"time"
)

type LoginRequest struct {
	Username string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

type CreateUserRequest struct {
	Username string
	Password string
	Role     string
}

type UpdateUserRequest struct {
	Username *string
	Password *string
	Role     *string
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)
	// Authenticate verifies a bearer token.
	Authenticate(ctx context.Context, token string) (Claims, error)
	Me(ctx context.Context, id string) (User, error)

	CreateUser(ctx context.Context, req CreateUserRequest) (User, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (User, error)
	DeleteUser(ctx context.Context, id string, actorID string) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context, role string) ([]User, error)
}

const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrUserExists         = errors.New("user_already_exists")
	ErrCannotDeleteSelf   = errors.New("cannot_delete_self")
)

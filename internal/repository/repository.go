package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/mpetrov/streamtube/internal/models"
)

// Fields for creating a new user. All except CoverURL are required,
// uniqueness of username and email is enforced by the repository.
type CreateUserParams struct {
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	AvatarURL      string
	CoverURL       string
}

// Partial update of a user record. Nil pointers leave the column unchanged,
// so clearing the refresh token is an explicit empty string, not nil.
type UserUpdate struct {
	Email          *string
	FullName       *string
	HashedPassword *string
	RefreshToken   *string
	AvatarURL      *string
	CoverURL       *string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If username or email is taken already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by its id, or by email or username (single identifier matched
	// against both columns, normalized to lower case)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmailOrUsername(ctx context.Context, identifier string) (models.User, error)

	// Apply partial update in a single statement and return the updated record
	// Concurrent updates of the same row must serialize at the store: the last
	// writer wins, a reader sees either the old or the new value
	UpdateUser(ctx context.Context, userID uuid.UUID, update UserUpdate) (models.User, error)
}

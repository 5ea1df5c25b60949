package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mpetrov/streamtube/internal/apperrors"
	"github.com/mpetrov/streamtube/internal/models"
	"github.com/mpetrov/streamtube/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, cover_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, username, email, full_name, password_hash, refresh_token, avatar_url, cover_url, created_at, updated_at
`

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(),
		params.Username,
		params.Email,
		params.FullName,
		params.HashedPassword,
		params.AvatarURL,
		params.CoverURL,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, fmt.Errorf("repo error: %w", apperrors.ErrUserAlreadyExists)
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, username, email, full_name, password_hash, refresh_token, avatar_url, cover_url, created_at, updated_at
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByEmailOrUsername = `-- name: GetUserByEmailOrUsername
SELECT id, username, email, full_name, password_hash, refresh_token, avatar_url, cover_url, created_at, updated_at
FROM users
WHERE username = lower($1) OR email = lower($1)
`

func (r *UserRepo) GetUserByEmailOrUsername(ctx context.Context, identifier string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmailOrUsername, identifier)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updateUser = `-- name: UpdateUser
UPDATE users
SET email         = COALESCE($2, email),
    full_name     = COALESCE($3, full_name),
    password_hash = COALESCE($4, password_hash),
    refresh_token = COALESCE($5, refresh_token),
    avatar_url    = COALESCE($6, avatar_url),
    cover_url     = COALESCE($7, cover_url),
    updated_at    = now()
WHERE id = $1
RETURNING id, username, email, full_name, password_hash, refresh_token, avatar_url, cover_url, created_at, updated_at
`

// Single UPDATE statement, so concurrent refresh-token rotations for one user
// serialize on the row: the last writer's token is the only valid one.
func (r *UserRepo) UpdateUser(ctx context.Context, userID uuid.UUID, update repository.UserUpdate) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUser,
		userID,
		update.Email,
		update.FullName,
		update.HashedPassword,
		update.RefreshToken,
		update.AvatarURL,
		update.CoverURL,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, fmt.Errorf("repo error: %w", apperrors.ErrUserAlreadyExists)
		}
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.HashedPassword,
		&u.RefreshToken,
		&u.AvatarURL,
		&u.CoverURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

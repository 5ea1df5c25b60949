package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mpetrov/streamtube/internal/apperrors"
	"github.com/mpetrov/streamtube/internal/models"
	"github.com/mpetrov/streamtube/internal/repository"
	"github.com/mpetrov/streamtube/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher
}

// AuthService drives the session lifecycle: register, login, refresh with
// rotation and reuse detection, logout and password change.
//
// The single valid refresh token per user lives on the user record itself.
// Login and refresh overwrite it, logout clears it.
type AuthService struct {
	token    *tokenmanager.TokenManager
	hasher   PasswordHasher
	userRepo repository.UserRepo
}

func NewService(cfg Config, tokenManager *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if tokenManager == nil || userRepo == nil {
		return nil, errors.New("token manager and user repo must not be nil")
	}

	return &AuthService{
		token:    tokenManager,
		hasher:   hasher,
		userRepo: userRepo,
	}, nil
}

type RegisterParams struct {
	Username string
	Email    string
	FullName string
	Password string

	// Avatar is mandatory, cover is optional
	AvatarURL string
	CoverURL  string
}

func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.User, error) {
	var user models.User

	required := []string{params.Username, params.Email, params.FullName, params.Password, params.AvatarURL}
	for _, field := range required {
		if strings.TrimSpace(field) == "" {
			return user, apperrors.ErrValidation
		}
	}

	username := normalize(params.Username)
	email := normalize(params.Email)

	// Check both identifiers before creating. The unique indexes still back
	// this up against concurrent registrations.
	for _, identifier := range []string{username, email} {
		_, err := s.userRepo.GetUserByEmailOrUsername(ctx, identifier)
		switch {
		case err == nil:
			return user, apperrors.ErrUserAlreadyExists
		case errors.Is(err, apperrors.ErrUserNotFound):
		default:
			return user, fmt.Errorf("error while checking user exists. Err: %w", err)
		}
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, error=%w", err)
	}

	created, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Username:       username,
		Email:          email,
		FullName:       strings.TrimSpace(params.FullName),
		HashedPassword: hash,
		AvatarURL:      params.AvatarURL,
		CoverURL:       params.CoverURL,
	})
	if err != nil {
		return user, err
	}

	// Fetch back to confirm the record landed
	user, err = s.userRepo.GetUserByID(ctx, created.ID)
	if err != nil {
		return user, fmt.Errorf("error while confirming user creation. Err: %w", err)
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, identifier string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	if strings.TrimSpace(identifier) == "" || password == "" {
		return models.User{}, pair, apperrors.ErrValidation
	}

	user, err := s.userRepo.GetUserByEmailOrUsername(ctx, normalize(identifier))
	if err != nil {
		return models.User{}, pair, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, pair, apperrors.ErrInvalidCredentials
	}

	user, pair, err = s.issueAndRotate(ctx, user)
	if err != nil {
		return models.User{}, pair, err
	}

	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair and rotates the
// stored token. A cryptographically valid token that is not the user's
// current one means reuse: fail with ErrRefreshTokenReused.
func (s *AuthService) Refresh(ctx context.Context, presented string) (models.TokenPair, error) {
	var pair models.TokenPair

	if presented == "" {
		return pair, apperrors.ErrTokenInvalid
	}

	claims, err := s.token.ParseRefresh(presented)
	if err != nil {
		return pair, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return pair, fmt.Errorf("%w: subject not found", apperrors.ErrTokenInvalid)
		}
		return pair, err
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return pair, apperrors.ErrRefreshTokenReused
	}

	_, pair, err = s.issueAndRotate(ctx, user)
	return pair, err
}

// Logout clears the stored refresh token. Idempotent: logging out an
// already-logged-out user is not an error.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	empty := ""
	_, err := s.userRepo.UpdateUser(ctx, userID, repository.UserUpdate{RefreshToken: &empty})
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return fmt.Errorf("error while clearing refresh token. Err: %w", err)
	}
	return nil
}

// ChangePassword re-hashes and persists the new password if the old one
// verifies. Outstanding refresh tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperrors.ErrValidation
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, oldPassword); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	_, err = s.userRepo.UpdateUser(ctx, userID, repository.UserUpdate{HashedPassword: &hash})
	if err != nil {
		return fmt.Errorf("error while saving new password. Err: %w", err)
	}

	return nil
}

// GetUserByAccess parses the access token and loads its subject.
// Used by the auth middleware.
func (s *AuthService) GetUserByAccess(ctx context.Context, access string) (models.User, error) {
	claims, err := s.token.ParseAccess(access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return user, fmt.Errorf("%w: subject not found", apperrors.ErrTokenInvalid)
		}
		return user, err
	}

	return user, nil
}

// issueAndRotate signs a fresh pair and overwrites the stored refresh token,
// invalidating any previously issued one
func (s *AuthService) issueAndRotate(ctx context.Context, user models.User) (models.User, models.TokenPair, error) {
	pair, err := s.token.IssuePair(user)
	if err != nil {
		return user, pair, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	user, err = s.userRepo.UpdateUser(ctx, user.ID, repository.UserUpdate{RefreshToken: &pair.Refresh.Value})
	if err != nil {
		return user, pair, fmt.Errorf("error while rotating refresh token. Err: %w", err)
	}

	return user, pair, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mpetrov/streamtube/internal/apperrors"
	"github.com/mpetrov/streamtube/internal/models"
	"github.com/mpetrov/streamtube/internal/repository"
)

// UserService handles profile and media-reference updates. Media bytes never
// pass through here: handlers upload to the media host and hand over the
// resulting references.
type UserService struct {
	userRepo repository.UserRepo
}

func NewService(userRepo repository.UserRepo) (*UserService, error) {
	if userRepo == nil {
		return nil, errors.New("user repo must not be nil")
	}

	return &UserService{userRepo: userRepo}, nil
}

func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

type UpdateProfileParams struct {
	// Both optional, but at least one must be set
	FullName string
	Email    string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) (models.User, error) {
	fullName := strings.TrimSpace(params.FullName)
	email := strings.ToLower(strings.TrimSpace(params.Email))

	update := repository.UserUpdate{}
	if fullName != "" {
		update.FullName = &fullName
	}
	if email != "" {
		update.Email = &email
	}

	if update.FullName == nil && update.Email == nil {
		return models.User{}, apperrors.ErrValidation
	}

	return s.userRepo.UpdateUser(ctx, userID, update)
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (models.User, error) {
	if strings.TrimSpace(avatarURL) == "" {
		return models.User{}, apperrors.ErrValidation
	}

	return s.userRepo.UpdateUser(ctx, userID, repository.UserUpdate{AvatarURL: &avatarURL})
}

func (s *UserService) UpdateCover(ctx context.Context, userID uuid.UUID, coverURL string) (models.User, error) {
	if strings.TrimSpace(coverURL) == "" {
		return models.User{}, apperrors.ErrValidation
	}

	return s.userRepo.UpdateUser(ctx, userID, repository.UserUpdate{CoverURL: &coverURL})
}

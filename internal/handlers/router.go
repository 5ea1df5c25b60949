package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mpetrov/streamtube/internal/handlers/middleware"
	"github.com/mpetrov/streamtube/internal/logger"
	"github.com/mpetrov/streamtube/internal/models"
	"github.com/mpetrov/streamtube/internal/service/auth"
	"github.com/mpetrov/streamtube/internal/service/user"
	"github.com/mpetrov/streamtube/internal/storage"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Config struct {
	Cookies CookieConfig
	Uploads UploadConfig
}

func NewRouter(
	authService authService,
	userService userService,
	media storage.MediaStore,
	cfg Config,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.Auth(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiusers := http.NewServeMux()

	apiusers.Handle("POST /register", handleRegister(authService, media, cfg.Uploads, logger))
	apiusers.Handle("POST /login", handleLogin(authService, cfg.Cookies, logger))
	apiusers.Handle("POST /refresh", handleTokenRefresh(authService, cfg.Cookies, logger))

	apiusers.Handle("POST /logout", withAuth(handleLogout(authService, cfg.Cookies, logger)))
	apiusers.Handle("POST /change-password", withAuth(handleChangePassword(authService, logger)))
	apiusers.Handle("GET /me", withAuth(handleUserMe()))
	apiusers.Handle("PATCH /me", withAuth(handleUpdateProfile(userService, logger)))
	apiusers.Handle("PATCH /me/avatar", withAuth(handleUpdateAvatar(userService, media, cfg.Uploads, logger)))
	apiusers.Handle("PATCH /me/cover", withAuth(handleUpdateCover(userService, media, cfg.Uploads, logger)))

	root := http.NewServeMux()
	root.Handle("/api/users/", http.StripPrefix("/api/users", apiusers))

	handler := chain(root,
		middleware.Logger(logger),
	)

	return handler
}

type authService interface {
	// Register user after the boundary uploaded media and collected the form
	// Has to return apperrors.ErrUserAlreadyExists if username or email is taken
	Register(ctx context.Context, params auth.RegisterParams) (models.User, error)

	// Login with email or username
	// Has to return apperrors.ErrUserNotFound or apperrors.ErrInvalidCredentials,
	// both rendered as 401
	Login(ctx context.Context, identifier string, password string) (models.User, models.TokenPair, error)

	// Refresh tokens using refresh token and rotate the stored one
	// If token expired: has to return apperrors.ErrTokenExpired
	// If token is stale or foreign: has to return apperrors.ErrRefreshTokenReused
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Clear the stored refresh token. Idempotent
	Logout(ctx context.Context, userID uuid.UUID) error

	// Replace password if the old one verifies
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error

	// Parse access token and return its subject. Used by the auth middleware
	GetUserByAccess(ctx context.Context, access string) (models.User, error)
}

type mediaUpdateFunc func(ctx context.Context, userID uuid.UUID, url string) (models.User, error)

type userService interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, params user.UpdateProfileParams) (models.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (models.User, error)
	UpdateCover(ctx context.Context, userID uuid.UUID, coverURL string) (models.User, error)
}

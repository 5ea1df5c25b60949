package handlers

import (
	"errors"
	"net/http"

	"github.com/mpetrov/streamtube/internal/apperrors"
	"github.com/mpetrov/streamtube/internal/handlers/render"
	"github.com/mpetrov/streamtube/internal/handlers/userctx"
	"github.com/mpetrov/streamtube/internal/logger"
	"github.com/mpetrov/streamtube/internal/models"
	"github.com/mpetrov/streamtube/internal/service/auth"
	"github.com/mpetrov/streamtube/internal/storage"
)

func handleRegister(authService authService, media storage.MediaStore, uploads UploadConfig, l logger.Logger) http.Handler {
	type registerForm struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Email    string `json:"email" validate:"required,email"`
		FullName string `json:"fullName" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type response struct {
		Message string            `json:"message"`
		User    models.PublicUser `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, uploads.maxSize())
		if err := r.ParseMultipartForm(uploads.maxSize()); err != nil {
			render.ServiceError(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}

		form := registerForm{
			Username: r.FormValue("username"),
			Email:    r.FormValue("email"),
			FullName: r.FormValue("fullName"),
			Password: r.FormValue("password"),
		}
		if err := render.ValidateStruct(w, form); err != nil {
			return
		}

		avatarPath, hasAvatar, err := saveUpload(r, "avatar", uploads)
		if err != nil {
			l.Error("avatar spooling failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		coverPath, hasCover, err := saveUpload(r, "coverImage", uploads)
		if err != nil {
			l.Error("cover spooling failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		defer removeTemp(l, avatarPath, coverPath)

		if !hasAvatar {
			render.ServiceError(w, "Avatar file is required", http.StatusBadRequest)
			return
		}

		avatarURL, err := media.UploadFile(r.Context(), avatarPath, "avatars")
		if err != nil {
			l.Error("avatar upload failed", "error", err.Error())
			render.ServiceError(w, "Avatar upload failed", http.StatusInternalServerError)
			return
		}

		var coverURL string
		if hasCover {
			coverURL, err = media.UploadFile(r.Context(), coverPath, "covers")
			if err != nil {
				l.Error("cover upload failed", "error", err.Error())
				render.ServiceError(w, "Cover upload failed", http.StatusInternalServerError)
				return
			}
		}

		user, err := authService.Register(r.Context(), auth.RegisterParams{
			Username:  form.Username,
			Email:     form.Email,
			FullName:  form.FullName,
			Password:  form.Password,
			AvatarURL: avatarURL,
			CoverURL:  coverURL,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrValidation):
				render.ServiceError(w, "All fields are required", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "Username or email already exists", http.StatusConflict)
			default:
				l.Error("register failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, response{Message: "Registered successfully", User: user.Public()}, http.StatusCreated)
	})
}

func handleLogin(authService authService, cookies CookieConfig, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Message      string            `json:"message"`
		User         models.PublicUser `json:"user"`
		AccessToken  string            `json:"accessToken"`
		RefreshToken string            `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		identifier := data.Username
		if identifier == "" {
			identifier = data.Email
		}

		user, pair, err := authService.Login(r.Context(), identifier, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrValidation):
				render.ServiceError(w, "Username or email is required", http.StatusBadRequest)
			// Unknown user and wrong password answer the same, so login
			// responses don't reveal which usernames exist
			case errors.Is(err, apperrors.ErrUserNotFound), errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
			default:
				l.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		setTokenCookies(w, pair, cookies)
		render.JSON(w, response{
			Message:      "Logged in successfully",
			User:         user.Public(),
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		})
	})
}

func handleTokenRefresh(authService authService, cookies CookieConfig, l logger.Logger) http.Handler {
	type response struct {
		Message      string `json:"message"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh := refreshFromRequest(r)
		if refresh == "" {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		pair, err := authService.Refresh(r.Context(), refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenReused):
				render.ServiceError(w, "Refresh token revoked or reused", http.StatusForbidden)
			case errors.Is(err, apperrors.ErrTokenExpired):
				render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrTokenInvalid):
				render.ServiceError(w, "Refresh token invalid", http.StatusUnauthorized)
			default:
				l.Error("refresh failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		setTokenCookies(w, pair, cookies)
		render.JSON(w, response{
			Message:      "Tokens refreshed successfully",
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		})
	})
}

func handleLogout(authService authService, cookies CookieConfig, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		if err := authService.Logout(r.Context(), user.ID); err != nil {
			l.Error("logout failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		clearTokenCookies(w, cookies)
		render.JSON(w, response{Message: "Logged out successfully"})
	})
}

func handleChangePassword(authService authService, l logger.Logger) http.Handler {
	type request struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, _ := userctx.FromContext(r.Context())

		err = authService.ChangePassword(r.Context(), user.ID, data.OldPassword, data.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrValidation):
				render.ServiceError(w, "New password is required", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid old password", http.StatusUnauthorized)
			default:
				l.Error("change password failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password changed successfully"})
	})
}

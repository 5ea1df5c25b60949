package handlers

import (
	"errors"
	"net/http"

	"github.com/mpetrov/streamtube/internal/apperrors"
	"github.com/mpetrov/streamtube/internal/handlers/render"
	"github.com/mpetrov/streamtube/internal/handlers/userctx"
	"github.com/mpetrov/streamtube/internal/logger"
	"github.com/mpetrov/streamtube/internal/models"
	"github.com/mpetrov/streamtube/internal/service/user"
	"github.com/mpetrov/streamtube/internal/storage"
)

func handleUserMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())
		render.JSON(w, u.Public())
	})
}

func handleUpdateProfile(userService userService, l logger.Logger) http.Handler {
	type request struct {
		FullName string `json:"fullName"`
		Email    string `json:"email" validate:"omitempty,email"`
	}
	type response struct {
		Message string            `json:"message"`
		User    models.PublicUser `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		u, _ := userctx.FromContext(r.Context())

		updated, err := userService.UpdateProfile(r.Context(), u.ID, user.UpdateProfileParams{
			FullName: data.FullName,
			Email:    data.Email,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrValidation):
				render.ServiceError(w, "Nothing to update", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "Email already taken", http.StatusConflict)
			default:
				l.Error("profile update failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Profile updated successfully", User: updated.Public()})
	})
}

func handleUpdateAvatar(userService userService, media storage.MediaStore, uploads UploadConfig, l logger.Logger) http.Handler {
	return handleMediaUpdate(mediaUpdate{
		field:     "avatar",
		keyPrefix: "avatars",
		message:   "Avatar updated successfully",
		update:    userService.UpdateAvatar,
	}, media, uploads, l)
}

func handleUpdateCover(userService userService, media storage.MediaStore, uploads UploadConfig, l logger.Logger) http.Handler {
	return handleMediaUpdate(mediaUpdate{
		field:     "coverImage",
		keyPrefix: "covers",
		message:   "Cover image updated successfully",
		update:    userService.UpdateCover,
	}, media, uploads, l)
}

type mediaUpdate struct {
	field     string
	keyPrefix string
	message   string
	update    mediaUpdateFunc
}

// handleMediaUpdate spools the uploaded file, pushes it to the media host and
// persists the returned reference on the authenticated user's record
func handleMediaUpdate(op mediaUpdate, media storage.MediaStore, uploads UploadConfig, l logger.Logger) http.Handler {
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

		path, ok, err := saveUpload(r, op.field, uploads)
		if err != nil {
			l.Error("upload spooling failed", "field", op.field, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !ok {
			render.ServiceError(w, "File is required", http.StatusBadRequest)
			return
		}
		defer removeTemp(l, path)

		url, err := media.UploadFile(r.Context(), path, op.keyPrefix)
		if err != nil {
			l.Error("media upload failed", "field", op.field, "error", err.Error())
			render.ServiceError(w, "Upload failed", http.StatusInternalServerError)
			return
		}

		u, _ := userctx.FromContext(r.Context())

		updated, err := op.update(r.Context(), u.ID, url)
		if err != nil {
			l.Error("media reference update failed", "field", op.field, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: op.message, User: updated.Public()})
	})
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mpetrov/streamtube/internal/handlers/render"
	"github.com/mpetrov/streamtube/internal/handlers/userctx"
	"github.com/mpetrov/streamtube/internal/models"
)

const (
	accessCookieName = "accessToken"
	bearerScheme     = "Bearer"
)

type authService interface {
	// Parse access token and return its subject
	GetUserByAccess(ctx context.Context, access string) (models.User, error)
}

// Auth authenticates the request by the access token taken from the
// 'accessToken' cookie or the Authorization header and puts the user into the
// request context. Requests without a valid token get 401.
func Auth(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access := accessFromRequest(r)
			if access == "" {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := as.GetUserByAccess(r.Context(), access)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(accessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if scheme, token, found := strings.Cut(header, " "); found && scheme == bearerScheme {
		return strings.TrimSpace(token)
	}

	return ""
}

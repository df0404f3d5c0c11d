package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"notes-server/internal/domain"
	"notes-server/pkg/response"

	"github.com/rs/zerolog"
)

type contextKey string

const UserKey contextKey = "user"

var ErrMissingToken = errors.New("missing bearer token")

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization header format")
	}

	return strings.TrimSpace(parts[1]), nil
}

// AuthMiddleware resolves the bearer token to a user and stores it in the
// request context. Requests without a valid token are rejected with 401.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				response.Unauthorized(w, "Missing or malformed authorization header")
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser stores user in ctx and tags the request logger with the username.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("user", user.Username)
	})
	return context.WithValue(ctx, UserKey, user)
}

func GetUser(r *http.Request) *domain.User {
	user, ok := r.Context().Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

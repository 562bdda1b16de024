package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/grenier-labs/marketplace/internal/user/entity"
)

// Authenticator resolves a bearer token to the account it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

// Auth guards a route group: it requires a valid "Authorization: Bearer"
// header, loads the caller's account and stores it in the request context.
func Auth(auth Authenticator, logger *zap.Logger, onError func(w http.ResponseWriter, status int, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				onError(w, http.StatusUnauthorized, "authorization token is not provided")
				return
			}

			user, err := auth.Authenticate(r.Context(), parts[1])
			if err != nil {
				logger.Warn("request authentication failed", zap.String("path", r.URL.Path), zap.Error(err))
				onError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the account stored by Auth, or nil on public
// routes.
func UserFromContext(ctx context.Context) *entity.User {
	user, _ := ctx.Value(UserCtxKey).(*entity.User)
	return user
}

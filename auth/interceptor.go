package auth

import (
	"altus-chat/errors"
	"context"
	"fmt"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RolesKey  contextKey = "roles"
)

// Authenticate validates the token and injects the identity into ctx.
// Every failure is reported as errors.ErrUnauthenticated.
func Authenticate(ctx context.Context, secret []byte, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("%w: token is missing", errors.ErrUnauthenticated)
	}
	claims, err := ValidateToken(secret, tokenString)
	if err != nil {
		return ctx, fmt.Errorf("%w: invalid or expired token", errors.ErrUnauthenticated)
	}
	if err = ValidateClaims(claims); err != nil {
		return ctx, fmt.Errorf("%w: %s", errors.ErrUnauthenticated, err)
	}

	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, RolesKey, claims.Roles)
	return ctx, nil
}

// TokenFromRequest reads the "Bearer <token>" Authorization header,
// falling back to the token query parameter browsers use for websockets.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/souvik017/livefeed/internal/domain"
	apperrors "github.com/souvik017/livefeed/internal/errors"
)

const userContextKey = "user"

// RequireIdentity authenticates the request via its bearer token, upserts
// the matching local user record from the verified claims, and stores the
// user on the request context. Profile fields on the local record follow
// the token; request bodies never set identity.
func RequireIdentity(verifier domain.TokenVerifier, users domain.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return apperrors.UnauthenticatedError("missing bearer token")
			}

			ctx := c.Request().Context()

			claims, err := verifier.Verify(ctx, token)
			if err != nil {
				return apperrors.UnauthenticatedError("invalid token")
			}

			user, err := users.Upsert(ctx, *claims)
			if err != nil {
				return apperrors.StoreError("failed to resolve user", err)
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// UserFromContext returns the authenticated user set by RequireIdentity,
// or nil when the request is unauthenticated.
func UserFromContext(c echo.Context) *domain.User {
	user, ok := c.Get(userContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

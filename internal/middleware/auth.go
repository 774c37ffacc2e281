package middleware // middleware contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-app-api/internal/model"
	"github.com/iliyamo/recipe-app-api/internal/service"
)

// Context keys set by TokenAuth.
const (
	UserKey   = "user"
	UserIDKey = "user_id"
)

// Authenticator resolves an opaque token key to its owner.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*model.User, error)
}

// TokenAuth returns an Echo middleware that requires an
// `Authorization: Token <key>` (or `Bearer <key>`) header, resolves the key
// to an active user and stores that user in the context.  Handlers read it
// back with CurrentUser.
func TokenAuth(auth Authenticator, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := tokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication credentials were not provided"})
			}

			u, err := auth.Authenticate(c.Request().Context(), key)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Token")
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				if logger != nil {
					logger.ErrorContext(c.Request().Context(), "token lookup failed", slog.String("error", err.Error()))
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}

			c.Set(UserKey, u)
			c.Set(UserIDKey, u.ID)
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by TokenAuth.
func CurrentUser(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(UserKey).(*model.User)
	return u, ok && u != nil
}

// tokenFromHeader extracts the key from "Token <key>" or "Bearer <key>".
// The scheme is matched case-insensitively.
func tokenFromHeader(h string) (string, bool) {
	scheme, key, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", false
	}
	return key, true
}

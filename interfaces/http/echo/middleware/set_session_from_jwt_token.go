package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type sessionKey string

const sessionContextKey sessionKey = JWTSessionKey

// TokenVerifier returns the subject of a valid access token.
type TokenVerifier func(token string) (string, error)

// SetSessionFromJWTToken resolves the bearer stored by SetTokenInContext into
// the subject it was issued for. Invalid tokens leave the request anonymous.
func SetSessionFromJWTToken(verify TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromContext(c)
			if token == "" {
				return next(c)
			}

			subject, err := verify(token)
			if err != nil {
				log.Debugf("rejected bearer token: %v", err)
				c.Set(JWTSessionKey, err)
				return next(c)
			}

			c.Set(JWTSessionKey, subject)
			newContext := context.WithValue(c.Request().Context(), sessionContextKey, subject)
			c.SetRequest(c.Request().WithContext(newContext))
			return next(c)
		}
	}
}

// RequireSession rejects anonymous requests the way the backend does: 401
// with a detail message naming what was wrong with the credential.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Get(JWTSessionKey).(type) {
			case string:
				return next(c)
			case error:
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"detail": "Given token not valid for any token type",
					"code":   "token_not_valid",
				})
			default:
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"detail": "Authentication credentials were not provided.",
				})
			}
		}
	}
}

// SessionFromContext returns the subject resolved by SetSessionFromJWTToken.
func SessionFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(sessionContextKey).(string)
	return subject, ok
}

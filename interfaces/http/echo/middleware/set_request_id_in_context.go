package middleware

import (
	"github.com/labstack/echo/v4"
	ctxutil "github.com/octabyte/taskdesk/utils/context"
)

// SetRequestIDInContext copies the caller's X-Request-ID into the request
// context and echoes it back on the response.
func SetRequestIDInContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(RequestIDHeader)
			if id == "" {
				return next(c)
			}

			c.SetRequest(c.Request().WithContext(ctxutil.WithRequestID(c.Request().Context(), id)))
			c.Response().Header().Set(RequestIDHeader, id)
			return next(c)
		}
	}
}

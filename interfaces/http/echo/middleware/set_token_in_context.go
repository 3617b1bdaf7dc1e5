package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/octabyte/taskdesk/utils"
)

// SetTokenInContext stores the raw bearer credential under TokenKey. The
// Authorization header wins over the session cookie.
func SetTokenInContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := utils.BearerToken(c.Request().Header.Get(Authorization))

			if token == "" {
				cookie, err := c.Cookie(SessionCookie)
				if err == nil {
					token = cookie.Value
				}
			}

			c.Set(TokenKey, token)
			return next(c)
		}
	}
}

func TokenFromContext(c echo.Context) string {
	token, _ := c.Get(TokenKey).(string)
	return token
}

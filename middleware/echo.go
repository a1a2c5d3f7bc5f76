package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/teamer-dev/authsession"
)

// Echo is Guard for echo handlers. Verified claims are stored both in the
// request context and under the "claims" key of the echo context.
func Echo(engine *authsession.Engine) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			claims, ok := verifyRequest(engine, r)
			if !ok {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="authsession"`)
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			c.SetRequest(r.WithContext(authsession.ContextWithClaims(r.Context(), claims)))
			c.Set("claims", claims)
			return next(c)
		}
	}
}

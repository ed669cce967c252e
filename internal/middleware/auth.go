package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coffee-shop-api/internal/auth"
)

// payloadKey is the echo context key holding the verified *auth.Payload.
const payloadKey = "auth.payload"

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Payload, error)
}

// RequireAuth returns a guard that reads the Authorization header, verifies
// the bearer token and stores the resulting payload in the context.  Auth
// failures are returned as *auth.Error so the error handler answers with
// the status they carry; the wrapped handler never runs.
func RequireAuth(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := auth.TokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			payload, err := v.Verify(raw)
			if err != nil {
				return err
			}
			c.Set(payloadKey, payload)
			return next(c)
		}
	}
}

// RequirePermission returns a guard that rejects requests whose payload
// does not grant permission.  It must run after RequireAuth.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := auth.CheckPermission(permission, PayloadFrom(c)); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// PayloadFrom returns the payload stored by RequireAuth, or nil on
// unauthenticated routes.
func PayloadFrom(c echo.Context) *auth.Payload {
	p, _ := c.Get(payloadKey).(*auth.Payload)
	return p
}

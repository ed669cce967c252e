package middleware

// identity.go resolves who is calling for rate limiting and logging.  The
// subject comes from the verified token when a guard already ran, otherwise
// the caller is anonymous.

import (
	"github.com/labstack/echo/v4"
)

// subject returns the token subject of the request or "anon".
func subject(c echo.Context) string {
	if p := PayloadFrom(c); p != nil && p.Subject != "" {
		return p.Subject
	}
	return "anon"
}

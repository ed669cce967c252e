package auth

import (
	"fmt"
	"net/http"
)

// Error codes carried by Error.
const (
	CodeHeaderMissing    = "authorization_header_missing"
	CodeInvalidHeader    = "invalid_header"
	CodeTokenExpired     = "token_expired"
	CodeInvalidSignature = "invalid_signature"
	CodeInvalidClaims    = "invalid_claims"
	CodeUnauthorized     = "unauthorized"
)

// Error is an authentication or authorization failure.  Status is the HTTP
// status to answer with (401 or 403) and Description is safe to show to
// the caller.
type Error struct {
	Code        string
	Description string
	Status      int
	Err         error // underlying cause, never sent to the client
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return e.Code + ": " + e.Description
}

func (e *Error) Unwrap() error { return e.Err }

func unauthenticated(code, desc string, cause error) *Error {
	return &Error{Code: code, Description: desc, Status: http.StatusUnauthorized, Err: cause}
}

func forbidden(code, desc string) *Error {
	return &Error{Code: code, Description: desc, Status: http.StatusForbidden}
}

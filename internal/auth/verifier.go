// Package auth verifies bearer tokens issued by the identity provider and
// checks the permissions they grant.  Verification is a pure function of
// the token string; nothing here talks to the database.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/coffee-shop-api/internal/config"
)

// Claims are the JWT claims the API relies on.  Permissions is filled by
// the identity provider's RBAC and is required.
type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Payload is the verified identity of one request.
type Payload struct {
	Subject     string
	Permissions []string
	Claims      *Claims
}

// Has reports whether the payload grants permission.
func (p *Payload) Has(permission string) bool {
	return p != nil && slices.Contains(p.Permissions, permission)
}

// Verifier validates tokens against one signing authority.
type Verifier struct {
	keyFunc jwt.Keyfunc
	parser  *jwt.Parser
}

// Options configures a Verifier.  Issuer and Audience are checked only when
// non-empty.
type Options struct {
	KeyFunc  jwt.Keyfunc
	Methods  []string
	Issuer   string
	Audience string
}

// NewVerifier builds a Verifier from explicit options.
func NewVerifier(o Options) (*Verifier, error) {
	if o.KeyFunc == nil {
		return nil, errors.New("auth: key func is required")
	}
	if len(o.Methods) == 0 {
		return nil, errors.New("auth: at least one signing method is required")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(o.Methods),
		jwt.WithExpirationRequired(),
	}
	if o.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(o.Issuer))
	}
	if o.Audience != "" {
		opts = append(opts, jwt.WithAudience(o.Audience))
	}
	return &Verifier{keyFunc: o.KeyFunc, parser: jwt.NewParser(opts...)}, nil
}

// NewHMACVerifier verifies HS256 tokens signed with secret.
func NewHMACVerifier(secret []byte, issuer, audience string) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}
	return NewVerifier(Options{
		KeyFunc:  func(*jwt.Token) (any, error) { return secret, nil },
		Methods:  []string{jwt.SigningMethodHS256.Alg()},
		Issuer:   issuer,
		Audience: audience,
	})
}

// FromConfig returns an RS256 verifier backed by the domain's JWKS when a
// domain is configured, otherwise an HS256 verifier using the secret.  The
// JWKS is refreshed in the background until ctx is cancelled.
func FromConfig(ctx context.Context, cfg config.AuthConfig) (*Verifier, error) {
	if cfg.Domain == "" {
		return NewHMACVerifier([]byte(cfg.Secret), cfg.Issuer, cfg.Audience)
	}
	k, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL()})
	if err != nil {
		return nil, fmt.Errorf("auth: load jwks: %w", err)
	}
	return NewVerifier(Options{
		KeyFunc:  k.Keyfunc,
		Methods:  []string{jwt.SigningMethodRS256.Alg()},
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
	})
}

// TokenFromHeader extracts the raw token from an Authorization header value.
func TokenFromHeader(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", unauthenticated(CodeHeaderMissing, "Authorization header is expected.", nil)
	}
	parts := strings.Fields(header)
	switch {
	case !strings.EqualFold(parts[0], "bearer"):
		return "", unauthenticated(CodeInvalidHeader, `Authorization header must start with "Bearer".`, nil)
	case len(parts) == 1:
		return "", unauthenticated(CodeInvalidHeader, "Token not found.", nil)
	case len(parts) > 2:
		return "", unauthenticated(CodeInvalidHeader, "Authorization header must be bearer token.", nil)
	}
	return parts[1], nil
}

// Verify checks signature, expiry, issuer and audience of token and returns
// its payload.  Every failure is an *Error with status 401.
func (v *Verifier) Verify(token string) (*Payload, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, v.keyFunc)
	if err != nil {
		return nil, classify(err)
	}
	if claims.Permissions == nil {
		return nil, unauthenticated(CodeInvalidClaims, "Permissions not included in JWT.", nil)
	}
	return &Payload{Subject: claims.Subject, Permissions: claims.Permissions, Claims: claims}, nil
}

func classify(err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return unauthenticated(CodeTokenExpired, "Token expired.", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return unauthenticated(CodeInvalidSignature, "Token signature is invalid.", err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience), errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing), errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return unauthenticated(CodeInvalidClaims, "Incorrect claims. Please, check the audience and issuer.", err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return unauthenticated(CodeInvalidHeader, "Unable to find the appropriate key.", err)
	default:
		return unauthenticated(CodeInvalidHeader, "Unable to parse authentication token.", err)
	}
}

// CheckPermission fails with a 403 Error when p does not grant permission.
func CheckPermission(permission string, p *Payload) error {
	if !p.Has(permission) {
		return forbidden(CodeUnauthorized, "Permission not found.")
	}
	return nil
}

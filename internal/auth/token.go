package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// TokenRequest describes a development token.
type TokenRequest struct {
	Subject     string
	Permissions []string
	TTL         time.Duration // zero means one hour
	Issuer      string
	Audience    string
}

// IssueHMACToken signs an HS256 token accepted by NewHMACVerifier with the
// same secret.  Production tokens come from the identity provider; this is
// for local development and tests only.
func IssueHMACToken(secret []byte, req TokenRequest) (AccessToken, error) {
	if len(secret) == 0 {
		return AccessToken{}, errors.New("auth: empty secret")
	}
	if req.TTL == 0 {
		req.TTL = time.Hour
	}
	now := time.Now().UTC()
	exp := now.Add(req.TTL)
	perms := req.Permissions
	if perms == nil {
		perms = []string{}
	}
	claims := Claims{
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.Subject,
			Issuer:    req.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if req.Audience != "" {
		claims.Audience = jwt.ClaimStrings{req.Audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

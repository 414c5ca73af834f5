package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const cookieIssuer = "coe-portal"

// ErrInvalidCookie is returned when a session cookie is forged or malformed
var ErrInvalidCookie = errors.New("invalid session cookie")

// cookieClaims carries only the session id; identity stays server side
type cookieClaims struct {
	jwt.RegisteredClaims
}

// CookieCodec signs and verifies the session id carried in the browser cookie
type CookieCodec struct {
	secret []byte
}

// NewCookieCodec creates a codec using an HMAC secret
func NewCookieCodec(secret string) *CookieCodec {
	return &CookieCodec{secret: []byte(secret)}
}

// Encode returns the signed cookie value for a session id
func (c *CookieCodec) Encode(sessionID string) (string, error) {
	claims := cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:     sessionID,
			Issuer: cookieIssuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return token, nil
}

// Decode verifies a cookie value and returns the session id it carries
func (c *CookieCodec) Decode(value string) (string, error) {
	claims := &cookieClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}

	if _, err := uuid.Parse(claims.ID); err != nil {
		return "", fmt.Errorf("%w: session id is not a uuid", ErrInvalidCookie)
	}
	return claims.ID, nil
}

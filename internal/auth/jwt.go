package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService signs and validates the JWTs that carry a logged-in
// user's identity between requests.
//
// WHY JWT?
// The token is stateless — the server needs no session table. The
// user ID rides in the "sub" claim, the signature (HMAC-SHA256 over the
// shared secret) guarantees nobody tampered with it, and expiry is
// checked by the library during parsing.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// tokenTTL is how long a login lasts before the user must sign in
// again. The original was a desktop app whose session lived as long as
// the process; eight hours approximates one working day at a desk.
const tokenTTL = 8 * time.Hour

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production:
// JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: tokenTTL}, nil
}

// claims embeds jwt.RegisteredClaims; we use the standard "sub" claim
// for the user ID rather than inventing a custom one.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a token for the given user ID.
func (t *TokenService) Generate(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: userID must not be empty")
	}

	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			Issuer:    "bugtracker",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string, returning the user ID it
// carries. Expired, tampered, or otherwise malformed tokens all fail.
func (t *TokenService) Validate(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(token *jwt.Token) (any, error) {
		// Refuse any algorithm other than the one we sign with —
		// accepting attacker-chosen algorithms (e.g. "none") is the
		// classic JWT vulnerability.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return "", errors.New("auth: invalid token claims")
	}
	return c.Subject, nil
}

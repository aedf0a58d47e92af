// Package auth provides JWT session tokens and password hashing for the
// game-store API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. POST /api/register or /api/login validates the credentials
// 2. Server issues a signed JWT with a 1-hour lifetime
// 3. The client sends it back as "Authorization: Bearer <token>"
// 4. Middleware validates the token and puts the userID in the request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't store session data.
// Everything needed (userID, expiry) is inside the signed token, and the
// HMAC signature ensures nobody can tamper with it without the secret key.
// There is no revocation list: a token stays valid until it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long a session token stays valid after issuance.
// After expiry the client must log in again — there is no refresh flow.
const TokenLifetime = time.Hour

const issuer = "game-store"

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The secret
// comes from the environment (JWT_SECRET) — never hard-code it.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Claims is the JWT payload. It embeds jwt.RegisteredClaims (Subject,
// ExpiresAt, IssuedAt, Issuer) and adds an optional email claim.
//
// "sub" carries the internal user ID. Email is informational — identity
// lookups always go through the subject, so a token without an email claim
// is just as valid as one with it.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Generate creates and signs a new session token for the given user.
//
// email may be empty; when present it is embedded as the "email" claim.
// Both register and login pass it, so every token has the same shape.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, fine for a
// single-server deployment.
func (s *TokenService) Generate(userID, email string) (string, error) {
	return s.GenerateWithDuration(userID, email, TokenLifetime)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired or about-to-expire tokens.
func (s *TokenService) GenerateWithDuration(userID, email string, d time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the userID stored
// in the "sub" claim.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired
//   - Issuer matches (prevents tokens minted by other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// Validate never panics on malformed input — garbage in, error out. Callers
// treat any returned error as "not authenticated".
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}

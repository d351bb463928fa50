// Package auth issues and verifies the bearer tokens that identify a user on
// every authenticated request, and hashes account passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const tokenIssuer = "coffee-api"

// MinSecretLength is the shortest HS256 secret NewTokenService accepts.
const MinSecretLength = 32

// ErrInvalidToken is returned by Verify for any token that is malformed,
// wrongly signed, expired or issued by someone else.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload. UserID duplicates Subject so clients can read it
// without knowing JWT conventions.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenService signs and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService returns a TokenService. secret must be at least
// MinSecretLength bytes.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth.NewTokenService: secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	return &TokenService{secret: secret, ttl: ttl}, nil
}

// Issue returns a signed token for userID and its expiry time.
func (s *TokenService) Issue(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
		UserID: userID.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth.TokenService.Issue: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature, expiry and issuer of token and returns the
// user it was issued to.
func (s *TokenService) Verify(token string) (uuid.UUID, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	if !claims.VerifyIssuer(tokenIssuer, true) {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

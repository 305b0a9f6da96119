// Package auth issues and verifies the signed tokens used by the API and the
// web pages.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped on every token and required when verifying.
const Issuer = "haulquote"

// TokenExpiry is the default token lifetime.
const TokenExpiry = 7 * 24 * time.Hour

// ErrRevoked is returned by Verifier.Verify for a logged-out token.
var ErrRevoked = errors.New("token revoked")

// Claims represents the JWT claims.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Expiry returns when the token stops being valid.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// GenerateToken creates a new JWT for a user with a unique JTI.
func GenerateToken(secret string, userID int64, username, role string) (string, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", fmt.Errorf("generating JTI: %w", err)
	}

	issued := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    Issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(issued.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims. Only
// HS256 tokens from this issuer with an expiry are accepted.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RevocationCheck reports whether the token with the given JTI was revoked.
type RevocationCheck func(ctx context.Context, jti string) (bool, error)

// Verifier validates tokens and rejects revoked ones.
type Verifier struct {
	Secret    string
	IsRevoked RevocationCheck
}

// Verify validates tokenStr and checks it against the revocation list.
func (v *Verifier) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := ValidateToken(v.Secret, tokenStr)
	if err != nil {
		return nil, err
	}
	if v.IsRevoked == nil {
		return claims, nil
	}

	revoked, err := v.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// generateJTI creates a random token ID.
func generateJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

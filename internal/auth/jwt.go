// Package auth provides JWT issuance/validation, password hashing, and the
// HTTP middleware that resolves the acting identity for each request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/careblog/careblog/internal/model"
)

// TokenTTL is the bearer token lifetime. Clients re-authenticate after a week.
const TokenTTL = 7 * 24 * time.Hour

const issuer = "careblog"

// Identity is the resolved caller: who they are and the role hint carried in
// their token. The role is trusted as issued; reads never re-check it
// against the credential store.
type Identity struct {
	ID    string
	Email string
	Role  model.Role
}

// TokenService signs and verifies bearer tokens with an HMAC secret.
// The same secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret should be at least
// 32 bytes of random data in production; we reject anything under 16.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the token payload: the standard registered claims (sub = user ID)
// plus the email and role of the account at issue time.
type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Generate signs a token for the given identity, valid for TokenTTL.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.generateWithDuration(id, TokenTTL)
}

func (s *TokenService) generateWithDuration(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
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

// Validate parses and verifies a token string and returns the identity it
// encodes. Restricting to HS256 via WithValidMethods blocks algorithm
// confusion; the issuer check blocks tokens minted by other apps sharing
// the secret.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
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
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	// A token with an unknown role string is invalid outright rather than
	// resolving to some partially-trusted identity.
	role, err := model.ParseRole(c.Role)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: %w", err)
	}

	return Identity{ID: c.Subject, Email: c.Email, Role: role}, nil
}

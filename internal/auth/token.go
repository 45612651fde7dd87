// Package auth is the credential collaborator: bcrypt accounts, JWT
// cookie tokens and the identity resolver the signaling channel and
// REST surface share. Verification failure always degrades to
// anonymous; callers decide whether authentication is mandatory.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/greenroom-live/greenroom/internal/domain"
)

// CookieName is the HttpOnly cookie that carries the token.
const CookieName = "sid"

const tokenTTL = 7 * 24 * time.Hour

var (
	ErrTokenInvalid      = errors.New("token invalid")
	ErrAlgorithmMismatch = errors.New("unexpected signing algorithm")
)

// Claims binds the user identity into the token. Role rides along so
// expired-token diagnostics keep context, but the resolver re-reads
// the user record and trusts the store, not the claim.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

func (m *TokenManager) Issue(u *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		UserID: u.ID,
		Role:   u.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenManager) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrAlgorithmMismatch
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

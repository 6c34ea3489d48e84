package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aferrand/housetab/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("session token required")
)

// TokenManager issues and validates the signed session tokens that identify
// a household member. The token replaces server-side session state: who is
// calling travels with every request as explicit claims.
type TokenManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// SessionClaims identifies the household and the member within it.
type SessionClaims struct {
	HouseholdID string            `json:"household_id"`
	MemberCode  models.MemberCode `json:"member_code"`
	jwt.RegisteredClaims
}

// NewTokenManager creates a token manager with the given secret and validity
// window. secretKey should be a strong random string (e.g., 32 bytes).
func NewTokenManager(secretKey string, tokenDuration time.Duration) *TokenManager {
	return &TokenManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// Generate creates a session token for one member of a household.
func (m *TokenManager) Generate(householdID string, member models.MemberCode) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		HouseholdID: householdID,
		MemberCode:  member,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses and validates a session token, returning its claims.
func (m *TokenManager) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&SessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.HouseholdID == "" || !models.ValidMemberCode(claims.MemberCode) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aferrand/housetab/internal/auth"
	"github.com/aferrand/housetab/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// HouseholdIDKey is the context key for the authenticated household ID.
	HouseholdIDKey contextKey = "household_id"
	// MemberCodeKey is the context key for the authenticated member code.
	MemberCodeKey contextKey = "member_code"
)

// GetHouseholdID extracts the household ID from the context.
// Returns empty string if not found.
func GetHouseholdID(ctx context.Context) string {
	householdID, _ := ctx.Value(HouseholdIDKey).(string)
	return householdID
}

// GetMemberCode extracts the member code from the context.
// Returns empty string if not found.
func GetMemberCode(ctx context.Context) models.MemberCode {
	member, _ := ctx.Value(MemberCodeKey).(models.MemberCode)
	return member
}

// RequireSession validates the Bearer token on every request and adds the
// household ID and member code to the request context. Requests without a
// valid token get a 401 JSON error.
func RequireSession(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, auth.ErrMissingToken.Error())
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, auth.ErrInvalidToken.Error())
				return
			}

			claims, err := tokens.Validate(parts[1])
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), HouseholdIDKey, claims.HouseholdID)
			ctx = context.WithValue(ctx, MemberCodeKey, claims.MemberCode)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

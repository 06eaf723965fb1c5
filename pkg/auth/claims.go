// Package auth verifies the JWT issued by the external identity service and
// exposes the caller's identity and role to handlers. The engine never mints
// or refreshes tokens; it only needs a trustworthy role claim to gate
// moderation and admin endpoints.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ClaimsKey is the context key for storing JWT claims.
const ClaimsKey contextKey = "claims"

// Role constants as carried in the token's role claim.
const (
	RoleAdmin       = "admin"
	RoleResearcher  = "researcher"
	RoleContributor = "contributor"
)

// ValidRoles contains all role values the engine recognizes.
var ValidRoles = []string{RoleAdmin, RoleResearcher, RoleContributor}

// IsValidRole checks if the given role is recognized.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// CanModerate reports whether the role may verify or reject scoring actions.
func CanModerate(role string) bool {
	return role == RoleAdmin || role == RoleResearcher
}

// Claims is the JWT claims structure issued by the identity service.
type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// RequireUserID extracts the caller's user ID from claims in context.
// Returns an error if the request is unauthenticated or the subject is not
// a UUID.
func RequireUserID(ctx context.Context) (uuid.UUID, error) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, fmt.Errorf("authentication required: no claims in context")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject in token: %w", err)
	}
	return userID, nil
}

// RoleFromContext returns the caller's role, or empty string when
// unauthenticated.
func RoleFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Role
}

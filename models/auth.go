package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ActAs is the (organization, role) scope baked into an access token
type ActAs struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	Role           Role   `json:"role" validate:"required"`
}

// Equal reports whether both scopes name the same organization and role
func (a *ActAs) Equal(other *ActAs) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.OrganizationID == other.OrganizationID && a.Role == other.Role
}

// TokenRequest is the body of POST /v1/auth/token
type TokenRequest struct {
	ActAs *ActAs `json:"act_as,omitempty"`
}

// TokenResponse is the body returned by POST /v1/auth/token
type TokenResponse struct {
	Token string `json:"token"`
}

// TokenClaims are the access token claims the client reads. The signature is
// never verified client side; the backend remains the authority.
type TokenClaims struct {
	UserID string `json:"user_id,omitempty"`
	ActAs  *ActAs `json:"act_as,omitempty"`

	jwt.RegisteredClaims
}

// AccessToken is a short-lived bearer token held only in memory
type AccessToken struct {
	Value     string    `json:"-"`
	ActAs     *ActAs    `json:"act_as,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
}

// ParseAccessToken decodes the claims of an issued token without verifying
// its signature. Opaque (non-JWT) tokens yield a token with no scope or expiry.
func ParseAccessToken(value string) *AccessToken {
	token := &AccessToken{Value: value, IssuedAt: time.Now()}

	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(value, claims); err != nil {
		return token
	}

	if claims.ActAs != nil && claims.ActAs.OrganizationID != "" {
		token.ActAs = claims.ActAs
	}
	if claims.ExpiresAt != nil {
		token.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		token.IssuedAt = claims.IssuedAt.Time
	}
	return token
}

// Expired reports whether the token has a known expiry in the past
func (t *AccessToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

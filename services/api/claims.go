package api

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// Claims is the authorization payload carried by the backend's access
// tokens. The client never verifies the signature — it holds no key, and
// authorization is enforced server-side — it only reads identity and
// timing claims for display purposes.
type Claims struct {
	jwt.StandardClaims
	TenantID string `json:"tenant_id,omitempty"`
}

// DecodeClaims parses a JWT without verifying it.
func DecodeClaims(token string) (*Claims, error) {
	claims := new(Claims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "api: decode access token")
	}
	return claims, nil
}

// TokenExpiry returns the token's expiry, or the zero time when the token
// cannot be decoded or carries no exp claim.
func TokenExpiry(token string) time.Time {
	claims, err := DecodeClaims(token)
	if err != nil || claims.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(claims.ExpiresAt, 0).UTC()
}

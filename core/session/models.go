package session

import "github.com/darasahq/shule/core"

// User is the authenticated identity as returned by the backend.
type User struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Name              string `json:"name,omitempty"`
	EmailVerified     bool   `json:"email_verified,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// Tenant is one school/organization candidate for a login identity.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Credentials is the login input, checked client-side before any network call.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	if err := core.Validate.Struct(c); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return nil
}

// pendingTenantChoice holds the tenant candidates returned by a login that
// matched several tenants, plus the original credentials so the follow-up
// selection can complete without re-prompting for a password. It lives in
// memory only and is never persisted.
type pendingTenantChoice struct {
	tenants []Tenant
	creds   Credentials
}

// LoginResult is the decoded POST /auth/login response.
type LoginResult struct {
	AccessToken          string   `json:"access_token"`
	RefreshToken         string   `json:"refresh_token"`
	User                 *User    `json:"user"`
	Permissions          []string `json:"permissions"`
	EnabledFeatures      []string `json:"enabled_features"`
	TenantID             string   `json:"tenant_id"`
	RequiresTenantChoice bool     `json:"requires_tenant_choice"`
	Tenants              []Tenant `json:"tenants"`
}

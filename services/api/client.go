package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/darasahq/shule/core"
	"github.com/darasahq/shule/core/session"
)

// CredentialSource provides the ambient credentials attached to every
// request and receives transparently refreshed access tokens. Implemented
// by *session.Context.
type CredentialSource interface {
	AccessToken() string
	RefreshToken() string
	TenantID() string
	ApplyNewAccessToken(ctx context.Context, token string) error
}

// Client consumes the Shule backend REST API. Timeout/backoff policy lives
// here (well, in the underlying http.Client); callers just get typed errors.
type Client struct {
	base  string
	http  *http.Client
	log   core.Logger
	creds CredentialSource
}

var _ session.API = (*Client)(nil)

func NewClient(cfg *core.Config, log core.Logger) *Client {
	return &Client{
		base: strings.TrimRight(cfg.API.BaseURL, "/"),
		http: &http.Client{Timeout: cfg.API.Timeout},
		log:  log,
	}
}

// BindCredentials attaches the session as the credential source. Done after
// construction because the session context and the client reference each
// other (the context calls Login, the client reads the context's tokens).
func (c *Client) BindCredentials(src CredentialSource) {
	c.creds = src
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenant_id,omitempty"`
}

// Login calls POST /auth/login, optionally scoped to a tenant.
func (c *Client) Login(ctx context.Context, email, password, tenantID string) (*session.LoginResult, error) {
	res := new(session.LoginResult)
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{
		Email:    email,
		Password: password,
		TenantID: tenantID,
	}, res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Register calls POST /auth/register and returns the registered email.
func (c *Client) Register(ctx context.Context, email, password, name string) (string, error) {
	var res struct {
		Email string `json:"email"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/register", registerRequest{
		Email:    email,
		Password: password,
		Name:     name,
	}, &res)
	if err != nil {
		return "", err
	}
	return res.Email, nil
}

// EnabledFeatures calls GET /auth/enabled-features using the ambient
// bearer token.
func (c *Client) EnabledFeatures(ctx context.Context) ([]string, error) {
	var res struct {
		EnabledFeatures []string `json:"enabled_features"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/enabled-features", nil, &res); err != nil {
		return nil, err
	}
	return res.EnabledFeatures, nil
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e apiError) text(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return fallback
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrapf(err, "api: encode %s %s", method, path)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return errors.Wrapf(err, "api: %s %s", method, path)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.creds != nil {
		if tok := c.creds.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		if tok := c.creds.RefreshToken(); tok != "" {
			req.Header.Set("X-Refresh-Token", tok)
		}
		if tid := c.creds.TenantID(); tid != "" {
			req.Header.Set("X-Tenant-ID", tid)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return core.NewNetworkError(errors.Wrapf(err, "api: %s %s", method, path))
	}
	defer resp.Body.Close()

	// Transparent refresh: the backend may rotate the access token on any
	// response; it must be persisted before the response is acted on.
	if tok := resp.Header.Get("X-New-Access-Token"); tok != "" && c.creds != nil {
		if err := c.creds.ApplyNewAccessToken(ctx, tok); err != nil {
			return err
		}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return core.NewNetworkError(errors.Wrapf(err, "api: decode %s %s", method, path))
		}
		return nil
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return core.NewAuthError(apiErr.text(http.StatusText(resp.StatusCode)))
	default:
		err := fmt.Errorf("api: %s %s: unexpected status %d", method, path, resp.StatusCode)
		c.log.Warn("api: request failed", err)
		return core.NewNetworkError(err)
	}
}

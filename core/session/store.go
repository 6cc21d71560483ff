package session

import (
	"context"
	"errors"
)

// Store keys. All of them are written together on login and deleted
// together on logout.
const (
	KeyAccessToken     = "access_token"
	KeyRefreshToken    = "refresh_token"
	KeyUser            = "user"
	KeyPermissions     = "permissions"
	KeyEnabledFeatures = "enabled_features"
	KeyTenantID        = "tenant_id"
)

var storeKeys = []string{
	KeyAccessToken, KeyRefreshToken, KeyUser, KeyPermissions, KeyEnabledFeatures, KeyTenantID,
}

// ErrKeyNotFound is returned by Store.Get when the key has no value.
var ErrKeyNotFound = errors.New("session store: key not found")

// Store is durable, tamper-resistant persistence for the session fields,
// one value per key. Reads and writes may fail (device locked, storage
// unavailable); the Context maps such failures to core.StorageError.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// API is the slice of the backend the session state machine consumes.
// Implemented by services/api.
type API interface {
	// Login authenticates email/password, optionally scoped to a tenant.
	Login(ctx context.Context, email, password, tenantID string) (*LoginResult, error)
	// EnabledFeatures fetches the tenant's current plan features using the
	// ambient bearer token.
	EnabledFeatures(ctx context.Context) ([]string, error)
}

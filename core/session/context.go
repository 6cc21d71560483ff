package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/shule/core"
	"github.com/darasahq/shule/core/perm"
)

// State is the session lifecycle state.
type State int

const (
	// Hydrating means the store reads are still in flight; permission and
	// feature queries report "not yet known" rather than a false denial.
	Hydrating State = iota
	Anonymous
	AwaitingTenantChoice
	Authenticated
)

func (s State) String() string {
	switch s {
	case Hydrating:
		return "hydrating"
	case Anonymous:
		return "anonymous"
	case AwaitingTenantChoice:
		return "awaiting-tenant-choice"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

var (
	nowFunc = time.Now // mockable

	ErrNoPendingTenantChoice = errors.New("no tenant choice is pending")
	ErrUnknownTenant         = errors.New("tenant is not one of the login candidates")
)

// Context is the single process-wide session object. It owns the in-memory
// session state, keeps it in sync with the Store, and answers the
// permission/feature queries the UI gates on.
//
// The backend remains the source of truth for authorization; everything
// here is advisory and only drives what the UI offers.
type Context struct {
	cfg   *core.Config
	store Store
	api   API
	log   core.Logger

	mu           sync.RWMutex
	state        State
	user         *User
	tenantID     string
	accessToken  string
	refreshToken string
	perms        perm.Set
	features     perm.FeatureSet
	pending      *pendingTenantChoice

	// epoch identifies the current authenticated session. It is bumped on
	// every login/logout so that a feature refresh resolving late can tell
	// it was issued for a session that no longer exists.
	epoch string

	lastFeatureRefresh time.Time
}

func NewContext(cfg *core.Config, store Store, api API, log core.Logger) *Context {
	return &Context{
		cfg:      cfg,
		store:    store,
		api:      api,
		log:      log,
		state:    Hydrating,
		perms:    perm.NewSet(),
		features: perm.NewFeatureSet(),
	}
}

// Hydrate reads the persisted session and resolves the initial state. It
// must be called once at process start; until it returns the Context
// reports Hydrating. When the store holds a full session, a cold-start
// feature refresh is kicked off in the background.
func (c *Context) Hydrate(ctx context.Context) error {
	vals := make(map[string][]byte, len(storeKeys))
	var (
		wg      sync.WaitGroup
		valsMu  sync.Mutex
		readErr error
	)
	for _, key := range storeKeys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			val, err := c.store.Get(ctx, key)
			valsMu.Lock()
			defer valsMu.Unlock()
			if err != nil {
				if !errors.Is(err, ErrKeyNotFound) && readErr == nil {
					readErr = err
				}
				return
			}
			vals[key] = val
		}(key)
	}
	wg.Wait()
	if readErr != nil {
		c.mu.Lock()
		c.state = Anonymous
		c.mu.Unlock()
		return core.NewStorageError(errors.Wrap(readErr, "session.Hydrate"))
	}

	access, refresh, userRaw := vals[KeyAccessToken], vals[KeyRefreshToken], vals[KeyUser]
	if len(access) == 0 || len(refresh) == 0 || len(userRaw) == 0 {
		// Nothing persisted, or a torn write left the store inconsistent:
		// either way the session is not authenticated. Wipe what remains.
		if len(access) != 0 || len(refresh) != 0 || len(userRaw) != 0 {
			c.wipeStore(ctx)
		}
		c.mu.Lock()
		c.state = Anonymous
		c.mu.Unlock()
		return nil
	}

	var usr User
	if err := json.Unmarshal(userRaw, &usr); err != nil {
		c.wipeStore(ctx)
		c.mu.Lock()
		c.state = Anonymous
		c.mu.Unlock()
		return core.NewStorageError(errors.Wrap(err, "session.Hydrate: corrupt user record"))
	}
	permList := decodeStringList(vals[KeyPermissions])
	featList := decodeStringList(vals[KeyEnabledFeatures])

	c.mu.Lock()
	c.state = Authenticated
	c.user = &usr
	c.accessToken = string(access)
	c.refreshToken = string(refresh)
	c.tenantID = string(vals[KeyTenantID])
	c.perms = perm.NewSet(permList...)
	c.features = perm.NewFeatureSet(featList...)
	c.epoch = uuid.NewString()
	epoch := c.epoch
	c.mu.Unlock()

	// Cold-start refresh; best effort, never blocks startup.
	go c.refreshFeatures(ctx, epoch)
	return nil
}

// Login authenticates with the backend. When the email maps to several
// tenants the Context moves to AwaitingTenantChoice (check State and
// PendingTenants afterwards) and stays unauthenticated until
// LoginWithTenant completes the hand-shake.
func (c *Context) Login(ctx context.Context, email, password string) error {
	creds := Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return err
	}

	res, err := c.api.Login(ctx, creds.Email, creds.Password, "")
	if err != nil {
		return err
	}

	if res.RequiresTenantChoice && len(res.Tenants) > 0 {
		c.mu.Lock()
		c.state = AwaitingTenantChoice
		c.pending = &pendingTenantChoice{tenants: res.Tenants, creds: creds}
		c.mu.Unlock()
		return nil
	}
	return c.adopt(ctx, res)
}

// LoginWithTenant completes a login that matched several tenants. The
// pending choice is kept until an attempt succeeds, so a rejected tenant
// leaves the candidate list intact and the user may pick another; use
// ClearPendingTenantChoice to abandon the flow.
func (c *Context) LoginWithTenant(ctx context.Context, tenantID string) error {
	c.mu.RLock()
	pending := c.pending
	state := c.state
	c.mu.RUnlock()

	if state != AwaitingTenantChoice || pending == nil {
		return ErrNoPendingTenantChoice
	}
	var found bool
	for _, t := range pending.tenants {
		if t.ID == tenantID {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownTenant
	}

	res, err := c.api.Login(ctx, pending.creds.Email, pending.creds.Password, tenantID)
	if err != nil {
		return err
	}
	if res.RequiresTenantChoice {
		// The backend bounced a tenant-scoped login back to tenant choice;
		// treat it as a rejection rather than looping.
		return core.NewAuthError("tenant selection was not accepted")
	}
	if res.TenantID == "" {
		res.TenantID = tenantID
	}
	return c.adopt(ctx, res)
}

// ClearPendingTenantChoice abandons a pending tenant selection.
func (c *Context) ClearPendingTenantChoice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == AwaitingTenantChoice {
		c.state = Anonymous
	}
	c.pending = nil
}

// PendingTenants returns the tenant candidates of a pending login, if any.
func (c *Context) PendingTenants() []Tenant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pending == nil {
		return nil
	}
	out := make([]Tenant, len(c.pending.tenants))
	copy(out, c.pending.tenants)
	return out
}

// adopt persists the session returned by the backend and, only once every
// store write has succeeded, makes it the in-memory session. A partial
// store write must never leave memory authenticated while the store is not.
func (c *Context) adopt(ctx context.Context, res *LoginResult) error {
	if res.AccessToken == "" || res.RefreshToken == "" || res.User == nil {
		return core.NewAuthError("login response is missing session data")
	}

	userRaw, err := json.Marshal(res.User)
	if err != nil {
		return errors.Wrap(err, "session.adopt")
	}
	permSet := perm.NewSet(res.Permissions...)
	featSet := perm.NewFeatureSet(res.EnabledFeatures...)

	writes := map[string][]byte{
		KeyAccessToken:     []byte(res.AccessToken),
		KeyRefreshToken:    []byte(res.RefreshToken),
		KeyUser:            userRaw,
		KeyPermissions:     encodeStringList(permSet.List()),
		KeyEnabledFeatures: encodeStringList(featSet.List()),
		KeyTenantID:        []byte(res.TenantID),
	}
	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		writeErr error
	)
	for key, val := range writes {
		wg.Add(1)
		go func(key string, val []byte) {
			defer wg.Done()
			if err := c.store.Set(ctx, key, val); err != nil {
				errMu.Lock()
				if writeErr == nil {
					writeErr = errors.Wrapf(err, "session store: set %s", key)
				}
				errMu.Unlock()
			}
		}(key, val)
	}
	wg.Wait()
	if writeErr != nil {
		c.wipeStore(ctx)
		return core.NewStorageError(writeErr)
	}

	c.mu.Lock()
	c.state = Authenticated
	c.user = res.User
	c.accessToken = res.AccessToken
	c.refreshToken = res.RefreshToken
	c.tenantID = res.TenantID
	c.perms = permSet
	c.features = featSet
	c.pending = nil
	c.epoch = uuid.NewString()
	// The login response carries a fresh feature set.
	c.lastFeatureRefresh = nowFunc()
	c.mu.Unlock()
	return nil
}

// Logout clears the store and the in-memory session unconditionally. It is
// idempotent and never performs or waits on a network call; an in-flight
// feature refresh is invalidated by bumping the epoch.
func (c *Context) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.state = Anonymous
	c.user = nil
	c.accessToken = ""
	c.refreshToken = ""
	c.tenantID = ""
	c.perms = perm.NewSet()
	c.features = perm.NewFeatureSet()
	c.pending = nil
	c.epoch = ""
	c.lastFeatureRefresh = time.Time{}
	c.mu.Unlock()

	if err := c.wipeStore(ctx); err != nil {
		return core.NewStorageError(err)
	}
	return nil
}

func (c *Context) wipeStore(ctx context.Context) error {
	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		delErr error
	)
	for _, key := range storeKeys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := c.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrKeyNotFound) {
				errMu.Lock()
				if delErr == nil {
					delErr = errors.Wrapf(err, "session store: delete %s", key)
				}
				errMu.Unlock()
			}
		}(key)
	}
	wg.Wait()
	return delErr
}

// OnForeground is called by the host app on every background-to-foreground
// transition. It re-fetches the enabled features unless the previous
// successful refresh is more recent than the configured throttle window.
// Failures keep the previously known set; they are logged, never surfaced.
func (c *Context) OnForeground(ctx context.Context) {
	c.mu.RLock()
	state := c.state
	epoch := c.epoch
	last := c.lastFeatureRefresh
	c.mu.RUnlock()

	if state != Authenticated {
		return
	}
	if !last.IsZero() && nowFunc().Sub(last) < c.cfg.FeatureRefreshThrottle {
		return
	}
	c.refreshFeatures(ctx, epoch)
}

// refreshFeatures fetches the enabled features and applies them iff the
// session they were fetched for is still the current one.
func (c *Context) refreshFeatures(ctx context.Context, epoch string) {
	feats, err := c.api.EnabledFeatures(ctx)
	if err != nil {
		c.log.Warn("session: feature refresh failed, keeping previous set", err)
		return
	}

	c.mu.Lock()
	if c.state != Authenticated || c.epoch != epoch {
		// The session this refresh was issued for is gone (logout or a new
		// login raced it). Discard.
		c.mu.Unlock()
		return
	}
	c.features = perm.NewFeatureSet(feats...)
	c.lastFeatureRefresh = nowFunc()
	featRaw := encodeStringList(c.features.List())
	c.mu.Unlock()

	// Best effort persistence; a stale stored set self-heals next refresh.
	if err := c.store.Set(ctx, KeyEnabledFeatures, featRaw); err != nil {
		c.log.Warn("session: could not persist refreshed features", err)
	}
}

// Queries

func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Context) IsAuthenticated() bool {
	return c.State() == Authenticated
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (c *Context) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	usr := *c.user
	return &usr
}

// HasPermission reports whether the permission is granted, honoring the
// "<resource>.manage" and "system.manage" wildcards. It is false while the
// session is not Authenticated; use State to distinguish Hydrating.
func (c *Context) HasPermission(p string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == Authenticated && c.perms.Has(p)
}

func (c *Context) HasAnyPermission(perms ...string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == Authenticated && c.perms.HasAny(perms...)
}

func (c *Context) HasAllPermissions(perms ...string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == Authenticated && c.perms.HasAll(perms...)
}

// IsFeatureEnabled reports whether the tenant's plan includes the feature.
// An empty feature set fails open: pre-plan tenants see everything.
func (c *Context) IsFeatureEnabled(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.features.Enabled(key)
}

// Permissions returns the granted permission strings, sorted.
func (c *Context) Permissions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.perms.List()
}

// EnabledFeatures returns the enabled feature keys, sorted. Empty means
// "all enabled" (fail-open).
func (c *Context) EnabledFeatures() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.features.List()
}

// Credential source for the HTTP layer (services/api.CredentialSource).

func (c *Context) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Context) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshToken
}

func (c *Context) TenantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tenantID
}

// ApplyNewAccessToken adopts a transparently refreshed access token
// (X-New-Access-Token response header) and persists it before any further
// request uses it.
func (c *Context) ApplyNewAccessToken(ctx context.Context, token string) error {
	c.mu.Lock()
	if c.state != Authenticated || token == "" {
		c.mu.Unlock()
		return nil
	}
	c.accessToken = token
	c.mu.Unlock()

	if err := c.store.Set(ctx, KeyAccessToken, []byte(token)); err != nil {
		return core.NewStorageError(errors.Wrap(err, "session: persist refreshed access token"))
	}
	return nil
}

func encodeStringList(list []string) []byte {
	raw, _ := json.Marshal(list)
	return raw
}

func decodeStringList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

// Package gate exposes the declarative UI-gating primitives. They carry no
// state of their own: every evaluation is pure derivation over the session
// queries, so nested gates compose by ordinary evaluation order.
package gate

import "github.com/darasahq/shule/core/session"

// Querier is the slice of *session.Context the gating primitives read.
type Querier interface {
	State() session.State
	HasPermission(p string) bool
	HasAnyPermission(perms ...string) bool
	HasAllPermissions(perms ...string) bool
	IsFeatureEnabled(key string) bool
}

// Check declares what a piece of UI requires. Set exactly one of
// Permission, AnyOf or AllOf; Feature may be combined with any of them.
type Check struct {
	Permission string
	AnyOf      []string
	AllOf      []string
	Feature    string
}

type Status int

const (
	// Pending means the session is still hydrating; callers keep the UI
	// behind a loading flag rather than flashing a false denial.
	Pending Status = iota
	Granted
	Denied
)

// Evaluate resolves a check against the current session.
func Evaluate(q Querier, c Check) Status {
	if q.State() == session.Hydrating {
		return Pending
	}
	if c.Feature != "" && !q.IsFeatureEnabled(c.Feature) {
		return Denied
	}
	switch {
	case c.Permission != "":
		if !q.HasPermission(c.Permission) {
			return Denied
		}
	case c.AnyOf != nil:
		if !q.HasAnyPermission(c.AnyOf...) {
			return Denied
		}
	case c.AllOf != nil:
		if !q.HasAllPermissions(c.AllOf...) {
			return Denied
		}
	}
	return Granted
}

// Result is the hook-style view of a check.
type Result struct {
	Ready   bool // false while the session is hydrating
	Granted bool
}

// Use is the hook equivalent of Render.
func Use(q Querier, c Check) Result {
	switch Evaluate(q, c) {
	case Granted:
		return Result{Ready: true, Granted: true}
	case Denied:
		return Result{Ready: true}
	}
	return Result{}
}

// Render is the conditional-render construct: children() when the check is
// granted, fallback() when denied (nil fallback renders the zero value),
// and the zero value while the session is still hydrating.
func Render[T any](q Querier, c Check, children func() T, fallback func() T) T {
	switch Evaluate(q, c) {
	case Granted:
		if children != nil {
			return children()
		}
	case Denied:
		if fallback != nil {
			return fallback()
		}
	}
	var zero T
	return zero
}

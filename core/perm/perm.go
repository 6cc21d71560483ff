package perm

import (
	"sort"
	"strings"
)

// Ref is a parsed permission reference. Resource is the substring before
// the first dot, Action everything after it. A string with no dot parses
// to a Ref with an empty Action and can only ever match literally.
type Ref struct {
	Resource string
	Action   string
}

// Parse splits a permission string into its typed (resource, action) pair.
func Parse(p string) Ref {
	i := strings.IndexByte(p, '.')
	if i < 0 {
		return Ref{Resource: p}
	}
	return Ref{Resource: p[:i], Action: p[i+1:]}
}

func (r Ref) String() string {
	if r.Action == "" {
		return r.Resource
	}
	return r.Resource + "." + r.Action
}

// Manage returns the resource-level wildcard permission for r's resource.
func (r Ref) Manage() string {
	return r.Resource + "." + ActionManage
}

// Set is a duplicate-collapsing set of granted permission strings.
type Set map[string]struct{}

func NewSet(perms ...string) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is granted: either p is literally present, or the
// holder has the global SystemManage grant, or the resource-level
// "<resource>.manage" wildcard for p's resource.
func (s Set) Has(p string) bool {
	if _, ok := s[p]; ok {
		return true
	}
	if _, ok := s[SystemManage]; ok {
		return true
	}
	ref := Parse(p)
	if ref.Resource == "" || ref.Action == "" {
		return false
	}
	_, ok := s[ref.Manage()]
	return ok
}

// HasAny reports whether at least one of perms is granted.
// An empty list is never satisfied.
func (s Set) HasAny(perms ...string) bool {
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of perms is granted.
// An empty list is vacuously satisfied.
func (s Set) HasAll(perms ...string) bool {
	for _, p := range perms {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// List returns the granted permission strings, sorted, for persistence.
func (s Set) List() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

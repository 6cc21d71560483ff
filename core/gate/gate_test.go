package gate

import (
	"testing"

	"github.com/darasahq/shule/core/perm"
	"github.com/darasahq/shule/core/session"
)

// stubQuerier answers the gate queries from fixed sets, like an
// authenticated session would.
type stubQuerier struct {
	state    session.State
	perms    perm.Set
	features perm.FeatureSet
}

func (s stubQuerier) State() session.State { return s.state }

func (s stubQuerier) HasPermission(p string) bool {
	return s.state == session.Authenticated && s.perms.Has(p)
}

func (s stubQuerier) HasAnyPermission(perms ...string) bool {
	return s.state == session.Authenticated && s.perms.HasAny(perms...)
}

func (s stubQuerier) HasAllPermissions(perms ...string) bool {
	return s.state == session.Authenticated && s.perms.HasAll(perms...)
}

func (s stubQuerier) IsFeatureEnabled(key string) bool { return s.features.Enabled(key) }

func teacherSession() stubQuerier {
	return stubQuerier{
		state:    session.Authenticated,
		perms:    perm.NewSet(perm.AttendanceManage, perm.GradeReadClass),
		features: perm.NewFeatureSet(perm.FeatureAttendance),
	}
}

func TestEvaluate(t *testing.T) {
	q := teacherSession()
	tests := []struct {
		name  string
		q     Querier
		check Check
		want  Status
	}{
		{name: "hydrating is pending", q: stubQuerier{state: session.Hydrating}, check: Check{Permission: perm.AttendanceMark}, want: Pending},
		{name: "literal permission", q: q, check: Check{Permission: perm.GradeReadClass}, want: Granted},
		{name: "wildcard permission", q: q, check: Check{Permission: perm.AttendanceMark}, want: Granted},
		{name: "missing permission", q: q, check: Check{Permission: perm.FeePay}, want: Denied},
		{name: "anonymous denied", q: stubQuerier{state: session.Anonymous}, check: Check{Permission: perm.AttendanceMark}, want: Denied},
		{name: "any of", q: q, check: Check{AnyOf: []string{perm.FeePay, perm.AttendanceDelete}}, want: Granted},
		{name: "any of empty list", q: q, check: Check{AnyOf: []string{}}, want: Denied},
		{name: "all of", q: q, check: Check{AllOf: []string{perm.AttendanceMark, perm.GradeReadClass}}, want: Granted},
		{name: "all of partially granted", q: q, check: Check{AllOf: []string{perm.AttendanceMark, perm.FeePay}}, want: Denied},
		{name: "all of empty list", q: q, check: Check{AllOf: []string{}}, want: Granted},
		{name: "no constraints", q: q, check: Check{}, want: Granted},
		{name: "feature enabled", q: q, check: Check{Permission: perm.AttendanceMark, Feature: perm.FeatureAttendance}, want: Granted},
		{name: "feature disabled wins", q: q, check: Check{Permission: perm.AttendanceMark, Feature: perm.FeatureFeesManagement}, want: Denied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.q, tt.check); got != tt.want {
				t.Errorf("Evaluate(%+v) = %v, want %v", tt.check, got, tt.want)
			}
		})
	}
}

func TestUse(t *testing.T) {
	q := teacherSession()

	if res := Use(stubQuerier{state: session.Hydrating}, Check{Permission: perm.AttendanceMark}); res.Ready {
		t.Errorf("Use() while hydrating = %+v, want not ready", res)
	}
	if res := Use(q, Check{Permission: perm.AttendanceMark}); !res.Ready || !res.Granted {
		t.Errorf("Use() = %+v, want ready and granted", res)
	}
	if res := Use(q, Check{Permission: perm.FeePay}); !res.Ready || res.Granted {
		t.Errorf("Use() = %+v, want ready and denied", res)
	}
}

func TestRender(t *testing.T) {
	q := teacherSession()
	children := func() string { return "attendance screen" }
	fallback := func() string { return "upgrade your plan" }

	if got := Render(q, Check{Permission: perm.AttendanceMark}, children, fallback); got != "attendance screen" {
		t.Errorf("Render() = %q, want the children", got)
	}
	if got := Render(q, Check{Permission: perm.FeePay}, children, fallback); got != "upgrade your plan" {
		t.Errorf("Render() = %q, want the fallback", got)
	}
	// default fallback renders nothing
	if got := Render(q, Check{Permission: perm.FeePay}, children, nil); got != "" {
		t.Errorf("Render() = %q, want empty", got)
	}
	if got := Render(stubQuerier{state: session.Hydrating}, Check{}, children, fallback); got != "" {
		t.Errorf("Render() while hydrating = %q, want empty", got)
	}
}

// Nesting needs no special casing: an outer denied gate never evaluates its
// children, so inner gates simply never run.
func TestRenderNested(t *testing.T) {
	q := teacherSession()
	var innerEvaluated bool
	inner := func() string {
		innerEvaluated = true
		return Render(q, Check{Permission: perm.GradeReadClass}, func() string { return "grades" }, nil)
	}

	if got := Render(q, Check{Permission: perm.AttendanceMark}, inner, nil); got != "grades" {
		t.Errorf("nested Render() = %q, want %q", got, "grades")
	}
	if !innerEvaluated {
		t.Fatal("inner gate must have been evaluated")
	}

	innerEvaluated = false
	if got := Render(q, Check{Permission: perm.FeePay}, inner, nil); got != "" {
		t.Errorf("nested Render() under a denied outer gate = %q, want empty", got)
	}
	if innerEvaluated {
		t.Error("a hidden subtree must not evaluate its inner gates")
	}
}

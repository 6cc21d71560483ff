package perm

import "sort"

// Plan feature keys. A tenant's subscription plan switches whole modules on
// or off; the backend returns the enabled subset at login and from
// /auth/enabled-features.
const (
	FeatureAttendance         = "attendance"
	FeatureFeesManagement     = "fees_management"
	FeatureNotifications      = "notifications"
	FeatureScheduleManagement = "schedule_management"
	FeatureSearch             = "search"
	FeatureReports            = "reports"
	FeatureStudentManagement  = "student_management"
	FeatureTeacherManagement  = "teacher_management"
	FeatureClassManagement    = "class_management"
	FeatureExaminations       = "examinations"
	FeatureTimetable          = "timetable"
	FeatureLibrary            = "library"
	FeatureTransport          = "transport"
	FeatureHostel             = "hostel"
	FeatureInventory          = "inventory"
)

var AllFeatures = []string{
	FeatureAttendance,
	FeatureFeesManagement,
	FeatureNotifications,
	FeatureScheduleManagement,
	FeatureSearch,
	FeatureReports,
	FeatureStudentManagement,
	FeatureTeacherManagement,
	FeatureClassManagement,
	FeatureExaminations,
	FeatureTimetable,
	FeatureLibrary,
	FeatureTransport,
	FeatureHostel,
	FeatureInventory,
}

// FeatureSet is the set of plan features enabled for the current tenant.
//
// The empty set is a distinguished value meaning "treat all features as
// enabled": tenants created before plan enforcement have no feature list
// and must see everything. Do not change this to fail-closed.
type FeatureSet map[string]struct{}

func NewFeatureSet(keys ...string) FeatureSet {
	fs := make(FeatureSet, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		fs[k] = struct{}{}
	}
	return fs
}

// Enabled reports whether the feature is available on the tenant's plan.
func (fs FeatureSet) Enabled(key string) bool {
	if len(fs) == 0 {
		return true
	}
	_, ok := fs[key]
	return ok
}

func (fs FeatureSet) Empty() bool { return len(fs) == 0 }

// List returns the enabled feature keys, sorted, for persistence.
func (fs FeatureSet) List() []string {
	out := make([]string, 0, len(fs))
	for k := range fs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package perm

import (
	"reflect"
	"testing"
)

func TestFeatureSetFailOpen(t *testing.T) {
	empty := NewFeatureSet()
	if !empty.Empty() {
		t.Error("NewFeatureSet() must be empty")
	}
	// the empty set means "no plan restrictions", not "nothing enabled"
	for _, key := range AllFeatures {
		if !empty.Enabled(key) {
			t.Errorf("empty set must enable %q", key)
		}
	}
	if !empty.Enabled("some_future_feature") {
		t.Error("empty set must enable unknown keys too")
	}
}

func TestFeatureSetMembership(t *testing.T) {
	fs := NewFeatureSet(FeatureAttendance)
	if !fs.Enabled(FeatureAttendance) {
		t.Error("attendance must be enabled")
	}
	if fs.Enabled(FeatureFeesManagement) {
		t.Error("fees_management must be disabled")
	}
}

func TestFeatureSetList(t *testing.T) {
	fs := NewFeatureSet(FeatureTimetable, FeatureAttendance, FeatureAttendance, "")
	want := []string{FeatureAttendance, FeatureTimetable}
	if got := fs.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

package testutil

import (
	"encoding/json"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// AssertEqualJSON fails the test with a unified diff when the two JSON
// documents differ structurally (key order and whitespace are ignored).
func AssertEqualJSON(t *testing.T, want, got []byte) {
	t.Helper()
	wantStr, err := normalizeJSON(want)
	if err != nil {
		t.Fatalf("want is not valid JSON: %v\n%s", err, want)
	}
	gotStr, err := normalizeJSON(got)
	if err != nil {
		t.Fatalf("got is not valid JSON: %v\n%s", err, got)
	}
	if wantStr == gotStr {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(wantStr),
		B:        difflib.SplitLines(gotStr),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	t.Errorf("JSON mismatch:\n%s", diff)
}

func normalizeJSON(raw []byte) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}

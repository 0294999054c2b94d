package errors

import (
	"testing"
)

func TestSentinelWrappingPreservesIdentity(t *testing.T) {
	err := Wrap(ErrRunTimeout, "analysis stage abandoned")
	err = Wrapf(err, "group %s", "SupplierA")

	if !Is(err, ErrRunTimeout) {
		t.Errorf("wrapped timeout error lost its sentinel identity: %v", err)
	}
	if !IsRunTimeout(err) {
		t.Errorf("IsRunTimeout should match wrapped sentinel: %v", err)
	}
	if IsRunTimeout(nil) {
		t.Error("IsRunTimeout(nil) should be false")
	}
}

func TestIsGroupFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"generation", Wrap(ErrGeneration, "llm returned 500"), true},
		{"retrieval", Wrap(ErrRetrieval, "history db locked"), true},
		{"render", Wrap(ErrRender, "bad metadata"), true},
		{"timeout is run level", ErrRunTimeout, false},
		{"plain error", New("boom"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		if got := IsGroupFatal(tc.err); got != tc.want {
			t.Errorf("%s: IsGroupFatal = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDetailsSurviveWrapping(t *testing.T) {
	err := Wrap(ErrDuplicateArtifact, "aggregating purchase request")
	err = WithDetail(err, "supplier: SupplierA")
	err = WithDetail(err, "snapshot: 2024-01-01")

	details := GetAllDetails(err)
	if len(details) != 2 {
		t.Fatalf("expected 2 details, got %d: %v", len(details), details)
	}
}

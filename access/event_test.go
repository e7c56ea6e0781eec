package access

import "testing"

func TestKindStringKnownValues(t *testing.T) {
	tests := map[Kind]string{
		KindOpen:     "NOTIFY_OPEN",
		KindWrite:    "NOTIFY_WRITE",
		KindCreate:   "NOTIFY_CREATE",
		KindFork:     "NOTIFY_FORK",
		KindSetOwner: "AUTH_SETOWNER",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", int(kind), got, want)
		}
	}
}

func TestKindStringUnknown(t *testing.T) {
	if got := Kind(999).String(); got != "UNKNOWN" {
		t.Errorf("Kind(999).String() = %q, want UNKNOWN", got)
	}
}

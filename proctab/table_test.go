package proctab

import "testing"

func TestTableAddLookupRemove(t *testing.T) {
	tb := New()

	if _, ok := tb.Lookup(1); ok {
		t.Fatalf("expected empty table to have no entry for pid 1")
	}

	tb.Add(1, "/bin/true")
	e, ok := tb.Lookup(1)
	if !ok {
		t.Fatalf("expected entry for pid 1")
	}
	if e.Exe != "/bin/true" {
		t.Fatalf("got Exe %q, want /bin/true", e.Exe)
	}

	tb.UpdateExe(1, "/bin/false")
	e, _ = tb.Lookup(1)
	if e.Exe != "/bin/false" {
		t.Fatalf("UpdateExe did not take effect, got %q", e.Exe)
	}

	tb.Remove(1)
	if _, ok := tb.Lookup(1); ok {
		t.Fatalf("expected pid 1 to be gone after Remove")
	}
}

func TestTableUpdateExeUnknownPidIsNoop(t *testing.T) {
	tb := New()
	tb.UpdateExe(42, "/bin/ls") // must not panic nor create an entry
	if _, ok := tb.Lookup(42); ok {
		t.Fatalf("UpdateExe on an unknown pid must not create an entry")
	}
}

func TestTableLen(t *testing.T) {
	tb := New()
	tb.Add(1, "/bin/a")
	tb.Add(2, "/bin/b")
	if tb.Len() != 2 {
		t.Fatalf("got Len %d, want 2", tb.Len())
	}
	tb.Remove(1)
	if tb.Len() != 1 {
		t.Fatalf("got Len %d, want 1", tb.Len())
	}
}

func TestZeroValueTableUsable(t *testing.T) {
	var tb Table
	tb.Add(7, "/bin/zero")
	if e, ok := tb.Lookup(7); !ok || e.Exe != "/bin/zero" {
		t.Fatalf("zero-value Table did not accept Add")
	}
}

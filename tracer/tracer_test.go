package tracer

import "testing"

func TestFaultError(t *testing.T) {
	if FaultLatchTimeout.Error() == "" {
		t.Fatalf("expected a non-empty message for FaultLatchTimeout")
	}
	unknown := Fault(9999)
	if unknown.Error() != "unknown fault" {
		t.Fatalf("Fault(9999).Error() = %q, want %q", unknown.Error(), "unknown fault")
	}
}

func TestNewSetsUpEmptyTable(t *testing.T) {
	fr := newFakeReporter()
	tr := New(fr, nil)
	if tr.Table == nil {
		t.Fatalf("expected New to initialize Table")
	}
	if tr.Table.Len() != 0 {
		t.Fatalf("expected an empty table, got %d entries", tr.Table.Len())
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	var l Logger = NopLogger{}
	l.Debugf("this should go nowhere: %d", 1)
}

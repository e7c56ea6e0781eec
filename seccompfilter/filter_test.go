package seccompfilter

import "testing"

func TestBuildProducesNonEmptyProgram(t *testing.T) {
	prog, err := Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(prog) == 0 {
		t.Fatalf("Build() returned an empty program")
	}
}

func TestBuildSockFprog(t *testing.T) {
	prog, err := Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	fprog := prog.SockFprog()
	if fprog.Len != uint16(len(prog)) {
		t.Fatalf("SockFprog.Len = %d, want %d", fprog.Len, len(prog))
	}
	if fprog.Filter == nil {
		t.Fatalf("SockFprog.Filter is nil")
	}
}

func TestToSyscallNameKnown(t *testing.T) {
	// openat is syscall 257 on x86_64.
	name, err := ToSyscallName(257)
	if err != nil {
		t.Fatalf("ToSyscallName(257) error: %v", err)
	}
	if name != "openat" {
		t.Fatalf("ToSyscallName(257) = %q, want openat", name)
	}
}

func TestToSyscallNameUnknown(t *testing.T) {
	if _, err := ToSyscallName(999999); err == nil {
		t.Fatalf("expected an error for an out-of-range syscall number")
	}
}

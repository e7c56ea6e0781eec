package ptrace

import (
	"syscall"
	"testing"
)

func TestArgMapping(t *testing.T) {
	c := &Context{
		Pid: 1,
		regs: syscall.PtraceRegs{
			Orig_rax: 257, // openat
			Rax:      0,
			Rdi:      1,
			Rsi:      2,
			Rdx:      3,
			R10:      4,
			R8:       5,
			R9:       6,
		},
	}

	if got := c.SyscallNo(); got != 257 {
		t.Fatalf("SyscallNo() = %d, want 257", got)
	}

	for i := 1; i <= 6; i++ {
		if got := c.Arg(i); got != uint64(i) {
			t.Errorf("Arg(%d) = %d, want %d", i, got, i)
		}
	}
	if got := c.Arg(0); got != 0 {
		t.Errorf("Arg(0) (return value) = %d, want 0", got)
	}
	if got := c.Arg(7); got != 0 {
		t.Errorf("Arg(7) (out of range) = %d, want 0", got)
	}
}

// Package ptrace decodes a stopped tracee's registers and memory into Go
// values. It covers exactly the x86_64 syscall ABI the module supports
// (spec.md's one explicit architecture restriction): six argument
// registers plus the return-value register, addressed by the same
// 1-based index scheme (0 == return value) the original PTraceSandbox
// uses for GetArgumentAddr/ArgumentIndexToRegister.
package ptrace

import (
	"syscall"

	"github.com/pkg/errors"
)

// Context is a decoding handle for one stopped tracee. It holds the
// register set read by NewContext (or by the latest Refresh): SyscallNo
// and Arg read that snapshot, so after the tracee has been resumed and
// re-stopped, call Refresh before reading registers again. String reads
// always go to the tracee's memory directly.
type Context struct {
	Pid  int
	regs syscall.PtraceRegs
}

// NewContext reads pid's current register set. Call this once per
// PTRACE_EVENT_SECCOMP stop, before decoding any arguments.
func NewContext(pid int) (*Context, error) {
	var regs syscall.PtraceRegs
	if err := syscall.PtraceGetRegs(pid, &regs); err != nil {
		return nil, errors.Wrapf(err, "ptrace: PTRACE_GETREGS pid=%d", pid)
	}
	return &Context{Pid: pid, regs: regs}, nil
}

// Refresh re-reads the register set in place, used after advancing the
// tracee to syscall-exit (mkdir/mkdirat/rmdir, fork/clone child-pid
// retrieval) to pick up the updated return value.
func (c *Context) Refresh() error {
	return syscall.PtraceGetRegs(c.Pid, &c.regs)
}

// SyscallNo returns the syscall number the tracee is executing
// (Orig_rax), stable across the entry/exit boundary.
func (c *Context) SyscallNo() uint {
	return uint(c.regs.Orig_rax)
}

// Arg returns the raw value of argument index (1..6), or the return
// value register when index is 0. Indices outside 0..6 are not part of
// the x86_64 syscall ABI and return 0, matching the original's
// ArgumentIndexToRegister falling through to NULL for unsupported
// indices.
func (c *Context) Arg(index int) uint64 {
	switch index {
	case 0:
		return c.regs.Rax
	case 1:
		return c.regs.Rdi
	case 2:
		return c.regs.Rsi
	case 3:
		return c.regs.Rdx
	case 4:
		return c.regs.R10
	case 5:
		return c.regs.R8
	case 6:
		return c.regs.R9
	default:
		return 0
	}
}

// SetReturnValue overwrites the return-value register, used when a
// handler needs to fabricate a syscall result (none of the spec.md
// handlers do today; kept because the teacher's skipSyscall path needs
// the same register write and a future Ban-style action would reuse it).
func (c *Context) SetReturnValue(v int64) error {
	c.regs.Rax = uint64(v)
	return syscall.PtraceSetRegs(c.Pid, &c.regs)
}

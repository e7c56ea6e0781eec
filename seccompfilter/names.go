package seccompfilter

import (
	"fmt"

	"github.com/elastic/go-seccomp-bpf/arch"
)

var archInfo, archErr = arch.GetInfo("")

// ToSyscallName resolves an x86_64 syscall number (as read from
// Orig_rax/ORIG_RAX) to its name, using the same architecture table the
// BPF classifier is built from. The tracer's dispatcher calls this once
// per PTRACE_EVENT_SECCOMP stop.
func ToSyscallName(sysno uint) (string, error) {
	if archErr != nil {
		return "", archErr
	}
	name, ok := archInfo.SyscallNumbers[int(sysno)]
	if !ok {
		return "", fmt.Errorf("seccompfilter: syscall number %d has no name in the x86_64 table", sysno)
	}
	return name, nil
}

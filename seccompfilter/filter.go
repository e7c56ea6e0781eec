// Package seccompfilter builds the kernel-side BPF classifier the tracee
// bootstrap installs with PR_SET_SECCOMP before it execs into the target
// program. Every syscall number in TracedSyscalls is routed to the tracer
// with SECCOMP_RET_TRACE; everything else is allowed to run unobserved,
// matching spec.md's "observe, never enforce" stance — the default action
// is always Allow, never Kill or Errno.
package seccompfilter

import (
	"syscall"

	libseccomp "github.com/elastic/go-seccomp-bpf"
	"golang.org/x/net/bpf"
	"github.com/pkg/errors"
)

// Program is the assembled BPF classifier, already shaped for
// syscall.SockFprog so the bootstrap package can hand it straight to
// PR_SET_SECCOMP.
type Program []syscall.SockFilter

// SockFprog converts Program into the SockFprog the prctl(2)/seccomp(2)
// syscalls expect.
func (p Program) SockFprog() *syscall.SockFprog {
	return &syscall.SockFprog{
		Len:    uint16(len(p)),
		Filter: &p[0],
	}
}

// Build assembles the classifier that traces every syscall named in
// TracedSyscalls and allows everything else.
func Build() (Program, error) {
	policy := libseccomp.Policy{
		DefaultAction: libseccomp.ActionAllow,
		Syscalls: []libseccomp.SyscallGroup{
			{
				Action: libseccomp.ActionTrace,
				Names:  TracedSyscalls,
			},
		},
	}

	instructions, err := policy.Assemble()
	if err != nil {
		return nil, errors.Wrap(err, "seccompfilter: assemble policy")
	}

	raw, err := bpf.Assemble(instructions)
	if err != nil {
		return nil, errors.Wrap(err, "seccompfilter: assemble bpf program")
	}

	return toSockFilter(raw), nil
}

func toSockFilter(raw []bpf.RawInstruction) Program {
	p := make(Program, 0, len(raw))
	for _, ins := range raw {
		p = append(p, syscall.SockFilter{
			Code: ins.Op,
			Jt:   ins.Jt,
			Jf:   ins.Jf,
			K:    ins.K,
		})
	}
	return p
}

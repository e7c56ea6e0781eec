// Package bootstrap implements the tracee side of the sandbox: a process
// that rendezvous-waits for an external tracer to PTRACE_SEIZE it, then
// installs a seccomp-BPF classifier on itself and execs into the target
// program. It never enforces anything itself; the filter it installs only
// ever routes traced syscalls to whoever seized it (SECCOMP_RET_TRACE),
// or lets them run (SECCOMP_RET_ALLOW) — see seccompfilter.Build.
//
// This mirrors PTraceSandbox.cpp's ExecuteWithPTraceSandbox plus
// ptracerunner.cpp's caller: a single process that filters, waits, then
// execs, coordinating with an already-running tracer purely through the
// named rendezvous latch, never through fork/PTRACE_TRACEME.
package bootstrap

import (
	"os"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/opensandbox/fstracer/rendezvous"
	"github.com/opensandbox/fstracer/seccompfilter"
	"github.com/opensandbox/fstracer/tracer"
)

const (
	prSetNoNewPrivs = 38
	prSetSeccomp    = 22
	seccompModeFilter = 2
)

// ExecuteWithSandbox builds the seccomp classifier, waits for a tracer to
// attach, installs the classifier, and execs into path with argv/envp. It does not return on
// success: like syscall.Exec, a nil error is never observed by the
// caller because the process image has been replaced.
//
// "Do not run anything other than execve after the filter is installed"
// holds here the same way it does in the original: once installFilter
// returns, the only other syscall this goroutine may make is execve.
func ExecuteWithSandbox(path string, argv []string, envp []string, log tracer.Logger) error {
	if log == nil {
		log = tracer.NopLogger{}
	}

	prog, err := seccompfilter.Build()
	if err != nil {
		return errors.Wrap(err, "bootstrap: build seccomp filter")
	}

	name := rendezvous.Name(os.Getpid())
	latch, err := rendezvous.Create(name)
	if err != nil {
		return errors.Wrap(err, "bootstrap: create rendezvous latch")
	}

	waitErr := latch.Wait(rendezvous.DefaultTimeout)

	// Unconditional cleanup: a crashed or timed-out tracee must never
	// leave a stale named semaphore behind for some future pid to
	// collide with.
	_ = latch.Close()
	_ = rendezvous.Unlink(name)

	if waitErr != nil {
		return errors.Wrap(waitErr, "bootstrap: tracer did not attach within the rendezvous deadline")
	}
	log.Debugf("bootstrap: tracer attached, installing seccomp filter")

	if err := dropNewPrivs(); err != nil {
		return errors.Wrap(err, "bootstrap: PR_SET_NO_NEW_PRIVS")
	}
	if err := installFilter(prog); err != nil {
		return errors.Wrap(err, "bootstrap: install seccomp filter")
	}

	return errors.Wrap(syscall.Exec(path, argv, envp), "bootstrap: exec")
}

func dropNewPrivs() error {
	_, _, errno := syscall.Syscall6(syscall.SYS_PRCTL, prSetNoNewPrivs, 1, 0, 0, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func installFilter(prog seccompfilter.Program) error {
	fprog := prog.SockFprog()
	_, _, errno := syscall.Syscall6(syscall.SYS_PRCTL, prSetSeccomp, seccompModeFilter,
		uintptr(unsafe.Pointer(fprog)), 0, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

package tracer

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/opensandbox/fstracer/ptrace"
	"github.com/opensandbox/fstracer/rendezvous"
	"github.com/opensandbox/fstracer/seccompfilter"
)

const seizeOptions = unix.PTRACE_O_TRACESYSGOOD | unix.PTRACE_O_TRACESECCOMP |
	unix.PTRACE_O_TRACECLONE | unix.PTRACE_O_TRACEFORK | unix.PTRACE_O_TRACEVFORK |
	unix.PTRACE_O_TRACEEXEC | unix.PTRACE_O_TRACEEXIT | unix.PTRACE_O_EXITKILL

// ptraceSeize issues PTRACE_SEIZE with options in a single call. The
// installed golang.org/x/sys/unix version's PtraceSeize always passes a
// data of 0, so this goes directly through the raw ptrace syscall to pass
// seizeOptions atomically with the seize, matching the kernel's
// PTRACE_SEIZE(pid, 0, 0, options) calling convention.
func ptraceSeize(pid int, options uintptr) error {
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, uintptr(unix.PTRACE_SEIZE), uintptr(pid), 0, options, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// AttachToProcess seizes traceePid, seeds the process table with its
// (possibly unknown) executable path, posts the rendezvous latch so the
// bootstrap can proceed to exec, and then runs the event loop until the
// tracee tree has fully exited. It mirrors PTraceSandbox.cpp's
// AttachToProcess: seize-then-verify-then-seed-table-then-resume-then-
// signal, in that order, so the tracee never resumes before the tracer
// is actually ready to observe it.
func (t *Tracer) AttachToProcess(traceePid int, exe string) error {
	if err := ptraceSeize(traceePid, seizeOptions); err != nil {
		return errors.Wrapf(err, "tracer: PTRACE_SEIZE pid=%d", traceePid)
	}
	if err := unix.PtraceInterrupt(traceePid); err != nil {
		return errors.Wrapf(err, "tracer: PTRACE_INTERRUPT pid=%d", traceePid)
	}

	t.Table.Add(traceePid, exe)
	t.Reporter.DisableOwnFDs()

	if err := unix.PtraceSyscall(traceePid, 0); err != nil {
		return errors.Wrapf(err, "tracer: initial PTRACE_SYSCALL pid=%d", traceePid)
	}

	if err := t.signalRendezvous(traceePid); err != nil {
		return err
	}

	return t.loop(traceePid)
}

// signalRendezvous opens the latch the bootstrap created for traceePid
// and posts it, letting the bootstrap proceed past its wait and into
// exec. It does not unlink the latch: the bootstrap owns that cleanup,
// unconditionally, on its own side.
func (t *Tracer) signalRendezvous(traceePid int) error {
	name := rendezvous.Name(traceePid)
	latch, err := rendezvous.Open(name)
	if err != nil {
		return errors.Wrapf(err, "tracer: open rendezvous latch for pid=%d", traceePid)
	}
	defer latch.Close()
	if err := latch.Post(); err != nil {
		return errors.Wrapf(err, "tracer: post rendezvous latch for pid=%d", traceePid)
	}
	return nil
}

// loop is the single-threaded wait4/ptrace dispatch per spec.md §4.2: it
// classifies each stop, handles the ones the tracer cares about, and
// resumes with a plain PTRACE_CONT otherwise — it never denies a
// syscall.
func (t *Tracer) loop(rootPid int) error {
	var wstatus unix.WaitStatus
	for {
		pid, err := unix.Wait4(-1, &wstatus, unix.WALL, nil)
		if err != nil {
			if err == unix.ECHILD {
				return nil
			}
			return errors.Wrap(err, "tracer: wait4")
		}

		switch {
		case wstatus.Exited(), wstatus.Signaled():
			t.Table.Remove(pid)
			if err := t.Reporter.SendExitReport(pid); err != nil {
				t.Log.Debugf("tracer: SendExitReport(%d) failed: %v", pid, err)
			}
			if t.Table.Len() == 0 {
				return nil
			}

		case wstatus.Stopped():
			if err := t.handleStop(pid, wstatus); err != nil {
				t.Log.Debugf("tracer: handleStop(%d) failed: %v", pid, err)
			}
		}
	}
}

func (t *Tracer) handleStop(pid int, wstatus unix.WaitStatus) error {
	stopSig := wstatus.StopSignal()
	if stopSig != unix.SIGTRAP {
		return unix.PtraceCont(pid, int(stopSig))
	}

	switch cause := wstatus.TrapCause(); cause {
	case unix.PTRACE_EVENT_EXIT:
		_, _ = unix.PtraceGetEventMsg(pid)
		t.Table.Remove(pid)
		return unix.PtraceCont(pid, 0)

	case unix.PTRACE_EVENT_VFORK, unix.PTRACE_EVENT_CLONE, unix.PTRACE_EVENT_FORK:
		// These are the kernel's own notification stops for the new
		// task, independent of the seccomp trace trap on the
		// fork/vfork/clone syscall itself. The child pid is read from
		// the syscall's seccomp dispatch instead (handleFork/handleClone
		// below); vfork's dispatch deliberately does nothing (see
		// handlers_exec_linux.go), so this stop is always just resumed.
		return unix.PtraceCont(pid, 0)

	case unix.PTRACE_EVENT_SECCOMP:
		// PTRACE_GETEVENTMSG here would yield the BPF filter's
		// SECCOMP_RET_DATA, not the syscall number: seccompfilter.Build
		// never sets a per-syscall return code, so every trap carries the
		// same value. The syscall number comes from Orig_rax via GETREGS
		// instead, same as every handler below already does.
		ctx, err := ptrace.NewContext(pid)
		if err != nil {
			return errors.Wrap(err, "tracer: PTRACE_GETREGS")
		}
		sysno := ctx.SyscallNo()
		if err := t.dispatch(pid, sysno); err != nil {
			t.Log.Debugf("tracer: dispatch(%d, %d) failed: %v", pid, sysno, err)
		}
		return unix.PtraceCont(pid, 0)

	default:
		return unix.PtraceCont(pid, 0)
	}
}

func (t *Tracer) dispatch(pid int, sysno uint) error {
	name, err := seccompfilter.ToSyscallName(sysno)
	if err != nil {
		return FaultUnknownSyscall
	}
	h, ok := handlers[name]
	if !ok {
		t.Log.Debugf("tracer: no handler registered for traced syscall %q", name)
		return nil
	}
	return h(t, pid, name)
}

package tracer

import (
	"os/exec"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/opensandbox/fstracer/ptrace"
	"github.com/opensandbox/fstracer/seccompfilter"
)

// TestDispatchUsesOrigRaxNotEventMsg drives a real traced process through
// classic PTRACE_SYSCALL syscall stops — which, like a seccomp trap, leave
// the attempted syscall number in Orig_rax and nowhere else — and checks
// dispatch resolves a real handler from it. A dispatcher that instead
// consulted PTRACE_GETEVENTMSG would see a meaningless value here (there is
// no seccomp classifier installed at all in this test) and would never
// reach a registered handler.
func TestDispatchUsesOrigRaxNotEventMsg(t *testing.T) {
	tmpFile := t.TempDir() + "/dispatch_target"

	cmd := exec.Command("touch", tmpFile)
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start child: %v", err)
	}

	var wstatus unix.WaitStatus
	if _, err := unix.Wait4(cmd.Process.Pid, &wstatus, 0, nil); err != nil {
		t.Fatalf("initial wait4: %v", err)
	}
	if !wstatus.Stopped() {
		t.Fatalf("expected the initial exec-stop, got %v", wstatus)
	}

	fr := newFakeReporter()
	tr := New(fr, nil)
	tr.Table.Add(cmd.Process.Pid, tmpFile)

	pid := cmd.Process.Pid
	dispatched := false
	for i := 0; i < 100000 && !dispatched; i++ {
		if err := unix.PtraceSyscall(pid, 0); err != nil {
			t.Fatalf("PTRACE_SYSCALL: %v", err)
		}
		if _, err := unix.Wait4(pid, &wstatus, 0, nil); err != nil {
			t.Fatalf("wait4: %v", err)
		}
		if wstatus.Exited() || wstatus.Signaled() {
			break
		}
		if !wstatus.Stopped() || wstatus.StopSignal() != unix.SIGTRAP {
			continue
		}

		ctx, err := ptrace.NewContext(pid)
		if err != nil {
			t.Fatalf("NewContext: %v", err)
		}
		sysno := ctx.SyscallNo()
		name, err := seccompfilter.ToSyscallName(sysno)
		if err != nil {
			continue
		}
		if _, ok := handlers[name]; !ok {
			continue
		}
		if err := tr.dispatch(pid, sysno); err != nil {
			t.Fatalf("dispatch(%d, %q): %v", sysno, name, err)
		}
		dispatched = true
	}

	_ = unix.PtraceCont(pid, 0)
	_ = cmd.Wait()

	if !dispatched {
		t.Fatalf("never observed a traced syscall with a registered handler before the child exited")
	}
	if len(fr.events) == 0 && len(fr.execs) == 0 {
		t.Fatalf("dispatch ran a handler but the reporter saw nothing")
	}
}

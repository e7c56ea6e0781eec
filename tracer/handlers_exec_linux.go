package tracer

import (
	"golang.org/x/sys/unix"

	"github.com/opensandbox/fstracer/access"
	"github.com/opensandbox/fstracer/ptrace"
)

func handleExecve(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	path, err := ctx.ReadArgString(1, maxPathLen)
	if err != nil {
		return err
	}
	return t.reportExec(pid, ctx, t.normalize(pid, path), 2)
}

func handleExecveat(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	dirfd := int(int32(ctx.Arg(1)))
	path, err := ctx.ReadArgString(2, maxPathLen)
	if err != nil {
		return err
	}
	flags := int(ctx.Arg(5))
	resolved := t.execResolvedPath(pid, dirfd, path, flags)
	return t.reportExec(pid, ctx, resolved, 3)
}

// execResolvedPath resolves execveat's target relative to dirfd. The
// AT_SYMLINK_NOFOLLOW bit in flags is only logged: NormalizePathAt takes
// no follow/no-follow argument, so the path is normalized the same way
// whether or not the bit is set.
func (t *Tracer) execResolvedPath(pid, dirfd int, path string, flags int) string {
	if flags&unix.AT_SYMLINK_NOFOLLOW != 0 {
		t.Log.Debugf("tracer: execveat(%s) with AT_SYMLINK_NOFOLLOW", path)
	}
	return t.normalizeAt(pid, dirfd, path)
}

// reportExec updates the process table for pid's exec and notifies the
// sink, optionally walking argv (argIndex) when the sink asked for
// process arguments. It runs at the exec syscall's seccomp stop, before
// the kernel executes it, so an exec that then fails is recorded too.
func (t *Tracer) reportExec(pid int, ctx *ptrace.Context, execPath string, argIndex int) error {
	t.updateTableForExec(pid, execPath)

	if !t.reportArgs {
		return t.Reporter.ReportExec(pid, execPath)
	}
	args, err := ctx.ReadArgVector(argIndex, maxPathLen)
	if err != nil {
		return t.Reporter.ReportExec(pid, execPath)
	}
	return t.Reporter.ReportExecArgs(pid, execPath, args)
}

// updateTableForExec is UpdateTraceeTableForExec: if pid is already
// known, its exe path is simply refreshed. Otherwise this is the
// vfork-discovery case — the tracer never saw this pid created (vfork's
// own dispatch is a no-op to avoid the parent-suspended deadlock), so a
// FORK event is synthesized here, as late as it can possibly be
// detected, before the table gains an entry for it.
func (t *Tracer) updateTableForExec(pid int, execPath string) {
	if _, ok := t.Table.Lookup(pid); ok {
		t.Table.UpdateExe(pid, execPath)
		return
	}

	parentExe, err := t.Reporter.GetProgramPath(pid)
	if err != nil {
		parentExe = execPath
	}
	_ = t.report(pid, access.Event{
		Kind:       access.KindFork,
		Pid:        pid,
		ChildPid:   pid,
		Path:       parentExe,
		CheckCache: false,
	})
	t.Table.Add(pid, execPath)
}

func handleFork(t *Tracer, pid int, name string) error {
	return t.handleChildProcess(pid, name)
}

func handleClone(t *Tracer, pid int, name string) error {
	return t.handleChildProcess(pid, name)
}

// handleChildProcess is HandleChildProcess: advance past the
// syscall-exit (skipping any intervening CLONE/FORK event stop) to read
// the new child's pid from the return-value register, then record a
// FORK event and seed the table with the parent's exe path.
//
// vfork has no handler registered at all: its dispatch would need the
// same advance-to-exit dance, but the vforked parent is suspended until
// the child execs or exits, so waiting on it here would deadlock the
// tracer against its own tracee. The new pid is instead discovered
// lazily in updateTableForExec when it execs.
func (t *Tracer) handleChildProcess(pid int, name string) error {
	wstatus, err := advanceToSyscallExit(pid)
	if err != nil {
		return err
	}
	if !wstatus.Stopped() {
		return nil
	}

	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	childPid := int(int64(ctx.Arg(0)))
	if childPid <= 0 {
		return nil // the fork/clone call itself failed
	}

	parentExe := name
	if e, ok := t.Table.Lookup(pid); ok {
		parentExe = e.Exe
	} else if p, err := t.Reporter.GetProgramPath(pid); err == nil {
		parentExe = p
	}

	if err := t.report(pid, access.Event{
		Kind:       access.KindFork,
		Pid:        pid,
		ChildPid:   childPid,
		Path:       parentExe,
		CheckCache: false,
	}); err != nil {
		return err
	}
	t.Table.Add(childPid, parentExe)
	return nil
}

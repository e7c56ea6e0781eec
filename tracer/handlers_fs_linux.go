package tracer

import (
	"golang.org/x/sys/unix"

	"github.com/opensandbox/fstracer/access"
	"github.com/opensandbox/fstracer/ptrace"
)

// handleMkdir, handleMkdirat and handleRmdir all need the syscall's
// actual return value, not just its arguments: the directory-fingerprint
// optimizations downstream of the sink care whether the directory
// creation/removal genuinely succeeded, not just that it was attempted.
// That means advancing the tracee to syscall-exit before reporting,
// exactly as the original does for these three. Of the other handlers,
// only fork/clone (handleChildProcess) also advance to syscall-exit, to
// read the child pid; the rest report at syscall-entry.

func handleMkdir(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	path, err := ctx.ReadArgString(1, maxPathLen)
	if err != nil {
		return err
	}
	return t.reportCreateAtExit(pid, ctx, t.normalize(pid, path), unix.S_IFDIR)
}

func handleMkdirat(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	dirfd := int(int32(ctx.Arg(1)))
	path, err := ctx.ReadArgString(2, maxPathLen)
	if err != nil {
		return err
	}
	return t.reportCreateAtExit(pid, ctx, t.normalizeAt(pid, dirfd, path), unix.S_IFDIR)
}

func handleRmdir(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	path, err := ctx.ReadArgString(1, maxPathLen)
	if err != nil {
		return err
	}
	resolved := t.normalize(pid, path)

	wstatus, err := advanceToSyscallExit(pid)
	if err != nil {
		return err
	}
	if !wstatus.Stopped() {
		return nil
	}
	if err := ctx.Refresh(); err != nil {
		return err
	}

	return t.report(pid, access.Event{
		Kind:       access.KindUnlink,
		Pid:        pid,
		Path:       resolved,
		Mode:       unix.S_IFDIR,
		ErrorCode:  syscallReturnToErrorCode(int64(ctx.Arg(0))),
		CheckCache: false,
	})
}

// reportCreateAtExit is ReportCreate, called after advancing to
// syscall-exit: it reads the return value register (rather than taking
// one as a parameter) and reports a CREATE event with it attached as
// ErrorCode, disabling the sink's own de-duplication cache the same way
// the original always does for mkdir/mkdirat.
func (t *Tracer) reportCreateAtExit(pid int, ctx *ptrace.Context, path string, mode uint32) error {
	wstatus, err := advanceToSyscallExit(pid)
	if err != nil {
		return err
	}
	if !wstatus.Stopped() {
		return nil
	}
	if err := ctx.Refresh(); err != nil {
		return err
	}
	return t.report(pid, access.Event{
		Kind:       access.KindCreate,
		Pid:        pid,
		Path:       path,
		Mode:       mode,
		ErrorCode:  syscallReturnToErrorCode(int64(ctx.Arg(0))),
		CheckCache: false,
	})
}

func handleMknod(t *Tracer, pid int, name string) error {
	return t.reportCreateNoReturn(pid, 1, -1)
}

func handleMknodat(t *Tracer, pid int, name string) error {
	return t.reportCreateNoReturn(pid, 2, 1)
}

// reportCreateNoReturn covers mknod/mknodat: unlike mkdir, the original
// never tracks their return value, so these report at syscall-entry like
// the rest of the handlers. dirfdIndex of -1 means resolve relative to
// the tracee's cwd instead of a directory fd.
func (t *Tracer) reportCreateNoReturn(pid, pathIndex, dirfdIndex int) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	path, err := ctx.ReadArgString(pathIndex, maxPathLen)
	if err != nil {
		return err
	}
	resolved := path
	if dirfdIndex >= 0 {
		resolved = t.normalizeAt(pid, int(int32(ctx.Arg(dirfdIndex))), path)
	} else {
		resolved = t.normalize(pid, path)
	}
	return t.report(pid, access.Event{
		Kind:       access.KindCreate,
		Pid:        pid,
		Path:       resolved,
		Mode:       unix.S_IFREG,
		CheckCache: true,
	})
}

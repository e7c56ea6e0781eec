package tracer

import (
	"golang.org/x/sys/unix"

	"github.com/opensandbox/fstracer/access"
	"github.com/opensandbox/fstracer/ptrace"
)

func handleUtime(t *Tracer, pid int, name string) error {
	return t.reportPathArg(pid, 1, access.KindSetTime)
}

func handleUtimensat(t *Tracer, pid int, name string) error {
	return t.reportPathAtArg(pid, 1, 2, access.KindSetTime)
}

func handleChmod(t *Tracer, pid int, name string) error {
	return t.reportPathArg(pid, 1, access.KindSetMode)
}

func handleFchmod(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	return t.reportAccessFd(pid, int(int32(ctx.Arg(1))), access.KindSetMode)
}

func handleFchmodat(t *Tracer, pid int, name string) error {
	return t.reportPathAtArg(pid, 1, 2, access.KindSetMode)
}

func handleChown(t *Tracer, pid int, name string) error {
	return t.reportPathArg(pid, 1, access.KindSetOwner)
}

func handleFchown(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	return t.reportAccessFd(pid, int(int32(ctx.Arg(1))), access.KindSetOwner)
}

func handleLchown(t *Tracer, pid int, name string) error {
	// lchown never follows a trailing symlink; there is no separate
	// no-follow path in access.Event, so it is reported the same as
	// chown — the distinction only matters to the sink's own mode
	// lookup, which always resolves the path it is handed literally.
	return t.reportPathArg(pid, 1, access.KindSetOwner)
}

func handleFchownat(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	dirfd := int(int32(ctx.Arg(1)))
	path, err := ctx.ReadArgString(2, maxPathLen)
	if err != nil {
		return err
	}
	return t.report(pid, access.Event{
		Kind: access.KindSetOwner, Pid: pid, Path: t.normalizeAt(pid, dirfd, path),
	})
}

// handleNameToHandleAt funnels through reportOpen the way the original
// does, but inverts the usual AT_SYMLINK_NOFOLLOW convention: here
// no-follow is the default and AT_SYMLINK_FOLLOW (arg index 5) is what
// opts into following the final symlink.
func handleNameToHandleAt(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	dirfd := int(int32(ctx.Arg(1)))
	path, err := ctx.ReadArgString(2, maxPathLen)
	if err != nil {
		return err
	}
	oflag := 0
	if int(ctx.Arg(5))&unix.AT_SYMLINK_FOLLOW == 0 {
		oflag |= unix.O_NOFOLLOW
	}
	return t.reportOpen(pid, t.normalizeAt(pid, dirfd, path), oflag)
}

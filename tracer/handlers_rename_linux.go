package tracer

import (
	"strings"

	"golang.org/x/sys/unix"

	"github.com/opensandbox/fstracer/access"
	"github.com/opensandbox/fstracer/ptrace"
)

func handleRename(t *Tracer, pid int, name string) error {
	return t.renameGeneric(pid, unix.AT_FDCWD, 1, unix.AT_FDCWD, 2)
}

func handleRenameat(t *Tracer, pid int, name string) error {
	return t.renameatArgs(pid)
}

func handleRenameat2(t *Tracer, pid int, name string) error {
	return t.renameatArgs(pid)
}

func (t *Tracer) renameatArgs(pid int) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	oldDirfd := int(int32(ctx.Arg(1)))
	newDirfd := int(int32(ctx.Arg(3)))
	return t.renameGenericCtx(pid, ctx, oldDirfd, 2, newDirfd, 4)
}

func (t *Tracer) renameGeneric(pid, oldDirfd, oldPathIdx, newDirfd, newPathIdx int) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	return t.renameGenericCtx(pid, ctx, oldDirfd, oldPathIdx, newDirfd, newPathIdx)
}

// renameGenericCtx is HandleRenameGeneric: a rename of a directory is
// expanded into one UNLINK/CREATE pair per entry the original tree
// contained (via EnumerateDirectory), since every path under the old
// directory logically moves too; a rename of anything else is a single
// UNLINK of the source plus a CREATE of the destination.
func (t *Tracer) renameGenericCtx(pid int, ctx *ptrace.Context, oldDirfd, oldPathIdx, newDirfd, newPathIdx int) error {
	oldRaw, err := ctx.ReadArgString(oldPathIdx, maxPathLen)
	if err != nil {
		return err
	}
	newRaw, err := ctx.ReadArgString(newPathIdx, maxPathLen)
	if err != nil {
		return err
	}
	oldPath := t.normalizeAt(pid, oldDirfd, oldRaw)
	newPath := t.normalizeAt(pid, newDirfd, newRaw)

	mode := t.Reporter.GetMode(oldPath)
	if mode&unix.S_IFDIR != 0 {
		entries, err := t.Reporter.EnumerateDirectory(oldPath, true)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := t.report(pid, access.Event{
				Kind: access.KindUnlink, Pid: pid, Path: entry, Mode: unix.S_IFDIR,
			}); err != nil {
				return err
			}
			moved := newPath + strings.TrimPrefix(entry, oldPath)
			if err := t.reportOpen(pid, moved, unix.O_CREAT); err != nil {
				return err
			}
		}
		return nil
	}

	if err := t.report(pid, access.Event{
		Kind: access.KindUnlink, Pid: pid, Path: oldPath, Mode: mode,
	}); err != nil {
		return err
	}
	return t.reportOpen(pid, newPath, unix.O_CREAT)
}

func handleLink(t *Tracer, pid int, name string) error {
	return t.linkGeneric(pid, unix.AT_FDCWD, 1, unix.AT_FDCWD, 2)
}

func handleLinkat(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	oldDirfd := int(int32(ctx.Arg(1)))
	newDirfd := int(int32(ctx.Arg(3)))
	return t.linkGenericCtx(pid, ctx, oldDirfd, 2, newDirfd, 4)
}

func (t *Tracer) linkGeneric(pid, oldDirfd, oldPathIdx, newDirfd, newPathIdx int) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	return t.linkGenericCtx(pid, ctx, oldDirfd, oldPathIdx, newDirfd, newPathIdx)
}

func (t *Tracer) linkGenericCtx(pid int, ctx *ptrace.Context, oldDirfd, oldPathIdx, newDirfd, newPathIdx int) error {
	oldRaw, err := ctx.ReadArgString(oldPathIdx, maxPathLen)
	if err != nil {
		return err
	}
	newRaw, err := ctx.ReadArgString(newPathIdx, maxPathLen)
	if err != nil {
		return err
	}
	return t.report(pid, access.Event{
		Kind:    access.KindLink,
		Pid:     pid,
		Path:    t.normalizeAt(pid, oldDirfd, oldRaw),
		NewPath: t.normalizeAt(pid, newDirfd, newRaw),
	})
}

func handleUnlink(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	path, err := ctx.ReadArgString(1, maxPathLen)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	resolved := t.normalize(pid, path)
	return t.report(pid, access.Event{
		Kind: access.KindUnlink, Pid: pid, Path: resolved, Mode: t.Reporter.GetMode(resolved),
	})
}

func handleUnlinkat(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	dirfd := int(int32(ctx.Arg(1)))
	path, err := ctx.ReadArgString(2, maxPathLen)
	if err != nil {
		return err
	}
	// An empty path produces no event; any other path is reported,
	// relative to dirfd, whether dirfd is AT_FDCWD or a directory fd.
	if path == "" {
		return nil
	}
	flags := int(ctx.Arg(3))
	resolved := t.normalizeAt(pid, dirfd, path)
	mode := t.Reporter.GetMode(resolved)
	if flags&unix.AT_REMOVEDIR != 0 {
		mode = unix.S_IFDIR
	}
	return t.report(pid, access.Event{
		Kind: access.KindUnlink, Pid: pid, Path: resolved, Mode: mode,
	})
}

func handleSymlink(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	linkPath, err := ctx.ReadArgString(2, maxPathLen)
	if err != nil {
		return err
	}
	return t.report(pid, access.Event{
		Kind: access.KindCreate, Pid: pid, Path: t.normalize(pid, linkPath), Mode: unix.S_IFLNK,
	})
}

func handleSymlinkat(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	newDirfd := int(int32(ctx.Arg(2)))
	linkPath, err := ctx.ReadArgString(3, maxPathLen)
	if err != nil {
		return err
	}
	return t.report(pid, access.Event{
		Kind: access.KindCreate, Pid: pid, Path: t.normalizeAt(pid, newDirfd, linkPath), Mode: unix.S_IFLNK,
	})
}

func handleReadlinkPath(t *Tracer, pid int, name string) error {
	return t.reportPathArg(pid, 1, access.KindReadlink)
}

func handleReadlinkAt(t *Tracer, pid int, name string) error {
	return t.reportPathAtArg(pid, 1, 2, access.KindReadlink)
}

package tracer

import (
	"golang.org/x/sys/unix"

	"github.com/opensandbox/fstracer/access"
	"github.com/opensandbox/fstracer/ptrace"
)

func handleOpen(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	path, err := ctx.ReadArgString(1, maxPathLen)
	if err != nil {
		return err
	}
	return t.reportOpen(pid, t.normalize(pid, path), int(ctx.Arg(2)))
}

func handleOpenat(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	dirfd := int(int32(ctx.Arg(1)))
	path, err := ctx.ReadArgString(2, maxPathLen)
	if err != nil {
		return err
	}
	return t.reportOpen(pid, t.normalizeAt(pid, dirfd, path), int(ctx.Arg(3)))
}

func handleCreat(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	path, err := ctx.ReadArgString(1, maxPathLen)
	if err != nil {
		return err
	}
	return t.reportOpen(pid, t.normalize(pid, path), unix.O_CREAT|unix.O_WRONLY|unix.O_TRUNC)
}

// reportOpen is ReportOpen: classify the access as CREATE, WRITE, or
// plain OPEN purely from whether the path already existed and which
// O_CREAT/O_TRUNC/O_WRONLY/O_RDWR bits the caller passed, without relying
// on the syscall's return value at all (this module does not advance to
// syscall-exit for the open family, unlike mkdir/mkdirat/rmdir).
func (t *Tracer) reportOpen(pid int, path string, oflag int) error {
	mode := t.Reporter.GetMode(path)
	exists := mode != 0
	isCreate := !exists && oflag&(unix.O_CREAT|unix.O_TRUNC) != 0
	isWrite := exists && oflag&(unix.O_CREAT|unix.O_TRUNC) != 0 && oflag&(unix.O_WRONLY|unix.O_RDWR) != 0

	kind := access.KindOpen
	switch {
	case isCreate:
		kind = access.KindCreate
	case isWrite:
		kind = access.KindWrite
	}

	return t.report(pid, access.Event{
		Kind:       kind,
		Pid:        pid,
		Path:       path,
		Mode:       mode,
		CheckCache: true,
	})
}

package tracer

import (
	"github.com/opensandbox/fstracer/access"
	"github.com/opensandbox/fstracer/ptrace"
)

func handleStatPath(t *Tracer, pid int, name string) error {
	return t.reportPathArg(pid, 1, access.KindStat)
}

func handleStatFd(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	return t.reportAccessFd(pid, int(int32(ctx.Arg(1))), access.KindStat)
}

func handleStatAt(t *Tracer, pid int, name string) error {
	return t.reportPathAtArg(pid, 1, 2, access.KindStat)
}

func handleAccessPath(t *Tracer, pid int, name string) error {
	return t.reportPathArg(pid, 1, access.KindAccess)
}

func handleAccessAt(t *Tracer, pid int, name string) error {
	return t.reportPathAtArg(pid, 1, 2, access.KindAccess)
}

func (t *Tracer) reportPathArg(pid, pathIndex int, kind access.Kind) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	path, err := ctx.ReadArgString(pathIndex, maxPathLen)
	if err != nil {
		return err
	}
	return t.report(pid, access.Event{
		Kind:       kind,
		Pid:        pid,
		Path:       t.normalize(pid, path),
		CheckCache: true,
	})
}

func (t *Tracer) reportPathAtArg(pid, dirfdIndex, pathIndex int, kind access.Kind) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	dirfd := int(int32(ctx.Arg(dirfdIndex)))
	path, err := ctx.ReadArgString(pathIndex, maxPathLen)
	if err != nil {
		return err
	}
	return t.report(pid, access.Event{
		Kind:       kind,
		Pid:        pid,
		Path:       t.normalizeAt(pid, dirfd, path),
		CheckCache: true,
	})
}

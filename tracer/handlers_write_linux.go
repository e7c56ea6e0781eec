package tracer

import (
	"strings"

	"github.com/opensandbox/fstracer/access"
	"github.com/opensandbox/fstracer/ptrace"
)

// handleWriteFd returns a handler for any syscall that identifies its
// target file purely by an fd argument (write, writev, pwrite64,
// pwritev, pwritev2, ftruncate, sendfile's out_fd, copy_file_range's
// fd_out). It is HandleReportAccessFd: resolve the fd to a path via
// fd_to_path and only report when the result looks like an absolute
// path — pipes and sockets resolve to bracketed pseudo-paths the
// original filters out the same way.
func handleWriteFd(fdArgIndex int, name string) handlerFunc {
	return func(t *Tracer, pid int, syscallName string) error {
		ctx, err := ptrace.NewContext(pid)
		if err != nil {
			return err
		}
		fd := int(int32(ctx.Arg(fdArgIndex)))
		return t.reportAccessFd(pid, fd, access.KindWrite)
	}
}

func (t *Tracer) reportAccessFd(pid, fd int, kind access.Kind) error {
	path, err := t.Reporter.FdToPath(pid, fd)
	if err != nil || !strings.HasPrefix(path, "/") {
		return nil
	}
	return t.report(pid, access.Event{
		Kind:       kind,
		Pid:        pid,
		Path:       path,
		CheckCache: true,
	})
}

func handleTruncatePath(t *Tracer, pid int, name string) error {
	ctx, err := ptrace.NewContext(pid)
	if err != nil {
		return err
	}
	path, err := ctx.ReadArgString(1, maxPathLen)
	if err != nil {
		return err
	}
	return t.report(pid, access.Event{
		Kind:       access.KindWrite,
		Pid:        pid,
		Path:       t.normalize(pid, path),
		CheckCache: true,
	})
}

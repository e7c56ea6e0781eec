package tracer

import (
	"golang.org/x/sys/unix"

	"github.com/opensandbox/fstracer/access"
)

// maxPathLen bounds every path/string read out of tracee memory, mirroring
// the original's argument.reserve(PATH_MAX).
const maxPathLen = 4096

type handlerFunc func(t *Tracer, pid int, name string) error

// handlers is the dispatch table keyed by syscall name. It is written by
// hand alongside seccompfilter.TracedSyscalls, the list the BPF classifier
// is built from, and nothing checks that the two agree: a traced syscall
// with no entry here is logged and resumed without an event.
var handlers = map[string]handlerFunc{
	"execve":   handleExecve,
	"execveat": handleExecveat,
	"fork":     handleFork,
	"clone":    handleClone,
	// vfork intentionally has no entry: see handlers_exec_linux.go.

	"open":   handleOpen,
	"openat": handleOpenat,
	"creat":  handleCreat,

	"write":    handleWriteFd(1, "write"),
	"writev":   handleWriteFd(1, "writev"),
	"pwrite64": handleWriteFd(1, "pwrite64"),
	"pwritev":  handleWriteFd(1, "pwritev"),
	"pwritev2": handleWriteFd(1, "pwritev2"),
	"sendfile": handleWriteFd(1, "sendfile"),

	"truncate":        handleTruncatePath,
	"ftruncate":       handleWriteFd(1, "ftruncate"),
	"copy_file_range": handleWriteFd(3, "copy_file_range"),

	"stat":       handleStatPath,
	"lstat":      handleStatPath,
	"fstat":      handleStatFd,
	"newfstatat": handleStatAt,
	"fstatat64":  handleStatAt,
	"access":     handleAccessPath,
	"faccessat":  handleAccessAt,
	"faccessat2": handleAccessAt,

	"name_to_handle_at": handleNameToHandleAt,

	"mkdir":   handleMkdir,
	"mkdirat": handleMkdirat,
	"rmdir":   handleRmdir,
	"mknod":   handleMknod,
	"mknodat": handleMknodat,

	"rename":     handleRename,
	"renameat":   handleRenameat,
	"renameat2":  handleRenameat2,
	"link":       handleLink,
	"linkat":     handleLinkat,
	"unlink":     handleUnlink,
	"unlinkat":   handleUnlinkat,
	"symlink":    handleSymlink,
	"symlinkat":  handleSymlinkat,
	"readlink":   handleReadlinkPath,
	"readlinkat": handleReadlinkAt,

	"utime":      handleUtime,
	"utimes":     handleUtime,
	"utimensat":  handleUtimensat,
	"futimesat":  handleUtimensat,
	"chmod":      handleChmod,
	"fchmod":     handleFchmod,
	"fchmodat":   handleFchmodat,
	"chown":      handleChown,
	"fchown":     handleFchown,
	"lchown":     handleLchown,
	"fchownat":   handleFchownat,
}

// syscallReturnToErrorCode implements the original's GetErrno helper: the
// module does not track strict errno fidelity (spec.md Non-goals), only
// whether the call succeeded, encoded the same way the original encodes
// it so a downstream consumer built against that convention still works.
// The one exception is ret == -1, where ~0 - ret would be 0: there ret is
// returned as is, so the result is 0 exactly when the syscall returned 0.
func syscallReturnToErrorCode(ret int64) int64 {
	if ret == 0 {
		return 0
	}
	allOnes := ^uint64(0)
	if code := int64(allOnes) - ret; code != 0 {
		return code
	}
	return ret
}

// advanceToSyscallExit resumes pid with PTRACE_SYSCALL and waits for the
// matching syscall-exit stop, skipping over any PTRACE_EVENT_CLONE/FORK/
// VFORK event stops the kernel delivers first (the fork/clone
// child-creation notification can arrive before the syscall-exit stop for
// the same syscall). It returns at the first other stop, or when pid is no
// longer stopped; callers re-read registers with Context.Refresh.
func advanceToSyscallExit(pid int) (unix.WaitStatus, error) {
	if err := unix.PtraceSyscall(pid, 0); err != nil {
		return 0, err
	}
	var wstatus unix.WaitStatus
	for {
		if _, err := unix.Wait4(pid, &wstatus, 0, nil); err != nil {
			return wstatus, err
		}
		if !wstatus.Stopped() || wstatus.StopSignal() != unix.SIGTRAP {
			return wstatus, nil
		}
		switch wstatus.TrapCause() {
		case unix.PTRACE_EVENT_CLONE, unix.PTRACE_EVENT_FORK, unix.PTRACE_EVENT_VFORK:
			if err := unix.PtraceSyscall(pid, 0); err != nil {
				return wstatus, err
			}
			continue
		default:
			return wstatus, nil
		}
	}
}

func (t *Tracer) normalize(pid int, path string) string {
	np, err := t.Reporter.NormalizePath(pid, path)
	if err != nil {
		return path
	}
	return np
}

func (t *Tracer) normalizeAt(pid, dirfd int, path string) string {
	np, err := t.Reporter.NormalizePathAt(pid, dirfd, path)
	if err != nil {
		return path
	}
	return np
}

func (t *Tracer) report(pid int, ev access.Event) error {
	return t.Reporter.ReportAccess(pid, ev)
}

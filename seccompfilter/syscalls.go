package seccompfilter

// TracedSyscalls lists the syscalls the kernel-side classifier routes to
// the tracer via SECCOMP_RET_TRACE; Build uses it to assemble the BPF
// program. The tracer package dispatches each PTRACE_EVENT_SECCOMP stop
// through its own handlers map, keyed by the same syscall names; the two
// lists are maintained by hand and nothing checks that they agree.
var TracedSyscalls = []string{
	// process image / lifetime
	"execve", "execveat",
	"fork", "vfork", "clone",

	// open family
	"open", "openat", "creat",

	// write family
	"write", "writev", "pwrite64", "pwritev", "pwritev2",
	"truncate", "ftruncate",
	"sendfile", "copy_file_range",

	// stat / access family
	"stat", "lstat", "fstat", "newfstatat",
	"access", "faccessat", "faccessat2",
	"name_to_handle_at",

	// directory and name-space mutation
	"mkdir", "mkdirat",
	"rmdir",
	"mknod", "mknodat",
	"rename", "renameat", "renameat2",
	"link", "linkat",
	"unlink", "unlinkat",
	"symlink", "symlinkat",
	"readlink", "readlinkat",

	// metadata mutation
	"utime", "utimes", "utimensat", "futimesat",
	"chmod", "fchmod", "fchmodat",
	"chown", "fchown", "lchown", "fchownat",
}

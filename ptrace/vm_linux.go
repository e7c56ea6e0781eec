package ptrace

import (
	"os"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var pageSize = os.Getpagesize()

// ReadString reads a NUL-terminated string from the tracee's address
// space at addr, preferring process_vm_readv and falling back to
// PTRACE_PEEKTEXT word reads if the former is unavailable (old kernels,
// or a sandboxed tracer without the syscall allowed).
func (c *Context) ReadString(addr uintptr, maxLen int) (string, error) {
	if addr == 0 {
		return "", nil
	}
	buf := make([]byte, maxLen)
	if err := vmReadStr(c.Pid, addr, buf); err != nil {
		return "", errors.Wrapf(err, "ptrace: read string at %#x", addr)
	}
	return cString(buf), nil
}

// ReadArgString decodes argument index as a NUL-terminated string: reads
// the register value as a pointer, then reads the string it points to.
func (c *Context) ReadArgString(index int, maxLen int) (string, error) {
	return c.ReadString(uintptr(c.Arg(index)), maxLen)
}

// ReadArgVector walks a NULL-terminated array of char* at argument index
// (argv/envp shape) and returns the decoded strings, space-joining is the
// caller's job (report_exec_args wants them as a slice, not pre-joined).
func (c *Context) ReadArgVector(index int, maxLen int) ([]string, error) {
	base := uintptr(c.Arg(index))
	if base == 0 {
		return nil, nil
	}
	var out []string
	const ptrSize = 8 // x86_64 pointer width
	for i := 0; ; i++ {
		ptrBuf := make([]byte, ptrSize)
		if err := vmRead(c.Pid, base+uintptr(i*ptrSize), ptrBuf); err != nil {
			return out, errors.Wrapf(err, "ptrace: read argv[%d] pointer", i)
		}
		entry := uintptr(hostEndianUint64(ptrBuf))
		if entry == 0 {
			break
		}
		s, err := c.ReadString(entry, maxLen)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

func hostEndianUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func vmRead(pid int, addr uintptr, buf []byte) error {
	n, err := processVMReadv(pid, addr, buf)
	if err == nil {
		_ = n
		return nil
	}
	// Fall back to the word-at-a-time ptrace peek when process_vm_readv
	// is unavailable (ENOSYS on very old kernels).
	return ptracePeek(pid, addr, buf)
}

func processVMReadv(pid int, addr uintptr, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	local := []unix.Iovec{{Base: &buf[0], Len: uint64(len(buf))}}
	remote := []unix.Iovec{{Base: (*byte)(unsafe.Pointer(addr)), Len: uint64(len(buf))}}
	n, _, errno := syscall.Syscall6(unix.SYS_PROCESS_VM_READV, uintptr(pid),
		uintptr(unsafe.Pointer(&local[0])), uintptr(len(local)),
		uintptr(unsafe.Pointer(&remote[0])), uintptr(len(remote)), 0)
	if errno != 0 {
		return int(n), errno
	}
	return int(n), nil
}

func ptracePeek(pid int, addr uintptr, buf []byte) error {
	n, err := syscall.PtracePeekData(pid, addr, buf)
	if err != nil {
		return err
	}
	if n < len(buf) {
		return errors.Errorf("ptrace: short peek at %#x: got %d of %d bytes", addr, n, len(buf))
	}
	return nil
}

// vmReadStr fills buf from the tracee's address space starting at addr,
// stopping as soon as it has seen a NUL byte. Reads are chunked to never
// cross a page boundary in a single process_vm_readv call, since an
// unmapped page immediately past the string would otherwise fail the
// whole read even though every byte of the string itself is mapped.
func vmReadStr(pid int, addr uintptr, buf []byte) error {
	total := 0
	next := pageSize - int(addr%uintptr(pageSize))
	if next == 0 {
		next = pageSize
	}

	for len(buf) > 0 {
		if rest := len(buf); rest < next {
			next = rest
		}
		n, err := vmReadChunk(pid, addr+uintptr(total), buf[:next])
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		if hasNull(buf[:n]) {
			break
		}
		total += n
		buf = buf[n:]
		next = pageSize
	}
	return nil
}

func vmReadChunk(pid int, addr uintptr, buf []byte) (int, error) {
	if err := vmRead(pid, addr, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func hasNull(b []byte) bool {
	for _, c := range b {
		if c == 0 {
			return true
		}
	}
	return false
}

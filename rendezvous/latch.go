// Package rendezvous implements the named counting semaphore the tracee
// bootstrap and the tracer use to coordinate PTRACE_SEIZE: the bootstrap
// creates the latch before installing its seccomp filter and blocks on it
// with a bounded wait; the tracer posts it once PTRACE_SEIZE (and the
// PTRACE_INTERRUPT verifying it took) has succeeded. There is no pure-Go
// or golang.org/x/sys/unix equivalent of a POSIX named semaphore with
// these cross-process, kernel-enforced wait/timeout semantics, so this
// package is the one place in the module that uses cgo.
package rendezvous

/*
#include <semaphore.h>
#include <fcntl.h>
#include <time.h>
#include <errno.h>
#include <string.h>
#include <stdlib.h>

static sem_t *latch_sem_open_create(const char *name, int oflag, mode_t mode, unsigned int value) {
	return sem_open(name, oflag, mode, value);
}

static sem_t *latch_sem_open_existing(const char *name, int oflag) {
	return sem_open(name, oflag);
}

static int latch_sem_timedwait(sem_t *sem, long sec, long nsec) {
	struct timespec ts;
	if (clock_gettime(CLOCK_REALTIME, &ts) != 0) {
		return -1;
	}
	ts.tv_sec += sec;
	ts.tv_nsec += nsec;
	if (ts.tv_nsec >= 1000000000L) {
		ts.tv_sec += 1;
		ts.tv_nsec -= 1000000000L;
	}
	int rc;
	do {
		rc = sem_timedwait(sem, &ts);
	} while (rc != 0 && errno == EINTR);
	return rc;
}
*/
import "C"

import (
	"strconv"
	"time"
	"unsafe"

	"github.com/pkg/errors"
)

// DefaultTimeout is the bounded wait the tracee bootstrap applies while
// waiting for the tracer to attach, per spec.md §3/§6.
const DefaultTimeout = 15 * time.Second

// Name builds the semaphore name for pid's rendezvous latch: "/<pid>".
// Both the bootstrap and the tracer derive the same name independently
// from the tracee's pid, so no out-of-band handshake is needed to agree
// on it.
func Name(pid int) string {
	return "/" + strconv.Itoa(pid)
}

// Latch is one open handle to a named POSIX semaphore.
type Latch struct {
	sem  *C.sem_t
	name string
}

// Create opens (creating if absent) the named latch with an initial count
// of zero: the bootstrap side calls this before it starts waiting.
func Create(name string) (*Latch, error) {
	return open(name, C.O_CREAT, 0)
}

// Open opens an existing named latch without creating it: the tracer side
// calls this once it knows the tracee has already created the latch (the
// tracee always creates it before seizing can race ahead).
func Open(name string) (*Latch, error) {
	return open(name, 0, 0)
}

func open(name string, flags C.int, value C.uint) (*Latch, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var sem *C.sem_t
	var errno error
	if flags&C.O_CREAT != 0 {
		sem, errno = C.latch_sem_open_create(cname, flags, C.mode_t(0644), value)
	} else {
		sem, errno = C.latch_sem_open_existing(cname, flags)
	}
	if sem == C.SEM_FAILED {
		return nil, errors.Wrapf(errno, "rendezvous: sem_open(%s)", name)
	}
	return &Latch{sem: sem, name: name}, nil
}

// Wait blocks until the latch is posted or timeout elapses, returning an
// error in either the timeout or any other sem_timedwait failure case.
func (l *Latch) Wait(timeout time.Duration) error {
	sec := C.long(timeout / time.Second)
	nsec := C.long(timeout % time.Second)
	if rc, errno := C.latch_sem_timedwait(l.sem, sec, nsec); rc != 0 {
		return errors.Wrapf(errno, "rendezvous: sem_timedwait(%s)", l.name)
	}
	return nil
}

// Post increments the latch, waking one waiter.
func (l *Latch) Post() error {
	if rc, errno := C.sem_post(l.sem); rc != 0 {
		return errors.Wrapf(errno, "rendezvous: sem_post(%s)", l.name)
	}
	return nil
}

// Close releases this process's handle to the latch. It does not remove
// the latch from the system; call Unlink for that.
func (l *Latch) Close() error {
	if rc, errno := C.sem_close(l.sem); rc != 0 {
		return errors.Wrapf(errno, "rendezvous: sem_close(%s)", l.name)
	}
	return nil
}

// Unlink removes the named latch from the system. The bootstrap calls
// this unconditionally once it is done waiting, regardless of whether the
// wait succeeded or timed out, so a crashed or timed-out tracee never
// leaves a stale semaphore behind.
func Unlink(name string) error {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	if rc, errno := C.sem_unlink(cname); rc != 0 {
		return errors.Wrapf(errno, "rendezvous: sem_unlink(%s)", name)
	}
	return nil
}

// Package proctab maintains the tracer's live view of the traced process
// tree. It has no concurrency story of its own: the tracer event loop owns
// it exclusively and calls it from a single goroutine, the same way
// BxlObserver's tracee table is only ever touched from AttachToProcess's
// wait loop.
package proctab

// Entry records what the tracer currently knows about one traced process.
type Entry struct {
	Pid int
	// Exe is the best-known executable path for Pid; it is set at fork
	// time from the parent's Exe and overwritten when the process execs.
	Exe string
}

// Table is a pid-keyed map of live tracees. The zero value is ready to
// use.
type Table struct {
	entries map[int]Entry
}

// New returns an empty Table.
func New() *Table {
	return &Table{entries: make(map[int]Entry)}
}

// Add registers pid with the given executable path, overwriting any
// existing entry for pid.
func (t *Table) Add(pid int, exe string) {
	if t.entries == nil {
		t.entries = make(map[int]Entry)
	}
	t.entries[pid] = Entry{Pid: pid, Exe: exe}
}

// Lookup returns the entry for pid, if one exists.
func (t *Table) Lookup(pid int) (Entry, bool) {
	e, ok := t.entries[pid]
	return e, ok
}

// UpdateExe overwrites the Exe field of pid's entry, used when the tracer
// sees pid exec. It is a no-op if pid is not tracked.
func (t *Table) UpdateExe(pid int, exe string) {
	if e, ok := t.entries[pid]; ok {
		e.Exe = exe
		t.entries[pid] = e
	}
}

// Remove drops pid from the table, called on PTRACE_EVENT_EXIT.
func (t *Table) Remove(pid int) {
	delete(t.entries, pid)
}

// Len reports how many processes are currently tracked.
func (t *Table) Len() int {
	return len(t.entries)
}

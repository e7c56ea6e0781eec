package tracer

import "github.com/opensandbox/fstracer/access"

// fakeReporter is a hand-written stand-in for access.Reporter, in the
// same spirit as the teacher's filehandler tests constructing FileSets
// directly instead of mocking the kernel: every method here is a plain
// map lookup or recorded call, no generated mock framework involved.
type fakeReporter struct {
	modes map[string]uint32
	fds   map[int]string // fd -> path, pid ignored; good enough for tests with one pid

	events   []access.Event
	exits    []int
	execs    []string
	disabled bool
	reportArgs bool
}

func newFakeReporter() *fakeReporter {
	return &fakeReporter{
		modes: make(map[string]uint32),
		fds:   make(map[int]string),
	}
}

func (f *fakeReporter) ReportAccess(pid int, ev access.Event) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeReporter) ReportAccessAt(pid int, dirfd int, ev access.Event) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeReporter) ReportExec(pid int, execPath string) error {
	f.execs = append(f.execs, execPath)
	return nil
}

func (f *fakeReporter) ReportExecArgs(pid int, execPath string, args []string) error {
	f.execs = append(f.execs, execPath)
	return nil
}

func (f *fakeReporter) SendExitReport(pid int) error {
	f.exits = append(f.exits, pid)
	return nil
}

func (f *fakeReporter) NormalizePath(pid int, path string) (string, error) {
	return path, nil
}

func (f *fakeReporter) NormalizePathAt(pid int, dirfd int, path string) (string, error) {
	return path, nil
}

func (f *fakeReporter) GetMode(path string) uint32 {
	return f.modes[path]
}

func (f *fakeReporter) FdToPath(pid int, fd int) (string, error) {
	return f.fds[fd], nil
}

func (f *fakeReporter) EnumerateDirectory(path string, recursive bool) ([]string, error) {
	return nil, nil
}

func (f *fakeReporter) GetProgramPath(pid int) (string, error) {
	return "", nil
}

func (f *fakeReporter) IsReportingProcessArgs() bool {
	return f.reportArgs
}

func (f *fakeReporter) DisableOwnFDs() {
	f.disabled = true
}

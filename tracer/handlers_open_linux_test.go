package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"github.com/opensandbox/fstracer/access"
)

func TestReportOpenClassification(t *testing.T) {
	tests := []struct {
		name       string
		pathExists bool
		oflag      int
		wantKind   access.Kind
	}{
		{
			name:       "new file with O_CREAT is a CREATE",
			pathExists: false,
			oflag:      unix.O_CREAT | unix.O_WRONLY,
			wantKind:   access.KindCreate,
		},
		{
			name:       "existing file truncated for write is a WRITE",
			pathExists: true,
			oflag:      unix.O_CREAT | unix.O_TRUNC | unix.O_WRONLY,
			wantKind:   access.KindWrite,
		},
		{
			name:       "existing file opened read-only is a plain OPEN",
			pathExists: true,
			oflag:      unix.O_RDONLY,
			wantKind:   access.KindOpen,
		},
		{
			name:       "new file without O_CREAT is a plain OPEN",
			pathExists: false,
			oflag:      unix.O_RDONLY,
			wantKind:   access.KindOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := newFakeReporter()
			const path = "/tmp/target"
			if tt.pathExists {
				fr.modes[path] = unix.S_IFREG
			}
			tr := New(fr, nil)

			err := tr.reportOpen(123, path, tt.oflag)
			assert.NoError(t, err)
			assert.Len(t, fr.events, 1)
			assert.Equal(t, tt.wantKind, fr.events[0].Kind)
			assert.Equal(t, path, fr.events[0].Path)
		})
	}
}

func TestSyscallReturnToErrorCode(t *testing.T) {
	assert.Equal(t, int64(0), syscallReturnToErrorCode(0))
	assert.NotEqual(t, int64(0), syscallReturnToErrorCode(-1))
	assert.Equal(t, int64(-1), syscallReturnToErrorCode(-1))
}

func TestReportAccessFdFiltersNonAbsolutePaths(t *testing.T) {
	fr := newFakeReporter()
	tr := New(fr, nil)

	fr.fds[3] = "socket:[12345]"
	assert.NoError(t, tr.reportAccessFd(1, 3, access.KindWrite))
	assert.Empty(t, fr.events)

	fr.fds[4] = "/var/log/app.log"
	assert.NoError(t, tr.reportAccessFd(1, 4, access.KindWrite))
	assert.Len(t, fr.events, 1)
	assert.Equal(t, "/var/log/app.log", fr.events[0].Path)
}

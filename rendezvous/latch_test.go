package rendezvous

import (
	"os"
	"strconv"
	"testing"
	"time"
)

func TestNameFormat(t *testing.T) {
	if got, want := Name(42), "/42"; got != want {
		t.Fatalf("Name(42) = %q, want %q", got, want)
	}
}

func TestCreatePostWaitUnlink(t *testing.T) {
	name := "/fstracer-test-" + strconv.Itoa(os.Getpid())

	latch, err := Create(name)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	defer Unlink(name)
	defer latch.Close()

	if err := latch.Post(); err != nil {
		t.Fatalf("Post() error: %v", err)
	}
	if err := latch.Wait(time.Second); err != nil {
		t.Fatalf("Wait() error after Post(): %v", err)
	}
}

func TestWaitTimesOutWithoutPost(t *testing.T) {
	name := "/fstracer-test-timeout-" + strconv.Itoa(os.Getpid())

	latch, err := Create(name)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	defer Unlink(name)
	defer latch.Close()

	if err := latch.Wait(50 * time.Millisecond); err == nil {
		t.Fatalf("expected Wait() to time out when nobody posted")
	}
}

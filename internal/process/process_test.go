package process

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// syncDispatch runs fn immediately on the caller's goroutine, which is
// enough to make reader-goroutine callbacks observable in a test without
// pulling in internal/loop; Supervisor only ever requires dispatch to run fn
// eventually, not on any particular goroutine.
func syncDispatch(mu *sync.Mutex) func(func()) {
	return func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSpawnCapturesStdoutLines(t *testing.T) {
	var mu sync.Mutex
	s := New(syncDispatch(&mu), testLogger())

	var lines []string
	exited := make(chan struct{})
	_, err := s.Spawn("sh", SpawnOptions{
		Args: []string{"-c", "echo one; echo two"},
		OnOutput: func(stream Stream, line string) {
			lines = append(lines, line)
		},
		OnExit: func(error) { close(exited) },
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process never reported exit")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("got lines %v, want [one two]", lines)
	}
}

func TestSpawnSeparatesStreams(t *testing.T) {
	var mu sync.Mutex
	s := New(syncDispatch(&mu), testLogger())

	var stdout, stderr []string
	exited := make(chan struct{})
	_, err := s.Spawn("sh", SpawnOptions{
		Args: []string{"-c", "echo out >&1; echo err >&2"},
		OnOutput: func(stream Stream, line string) {
			if stream == Stdout {
				stdout = append(stdout, line)
			} else {
				stderr = append(stderr, line)
			}
		},
		OnExit: func(error) { close(exited) },
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process never reported exit")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(stdout) != 1 || stdout[0] != "out" {
		t.Fatalf("stdout = %v, want [out]", stdout)
	}
	if len(stderr) != 1 || stderr[0] != "err" {
		t.Fatalf("stderr = %v, want [err]", stderr)
	}
}

func TestSpawnUnknownCommandFails(t *testing.T) {
	var mu sync.Mutex
	s := New(syncDispatch(&mu), testLogger())

	_, err := s.Spawn("neopult-definitely-not-a-real-binary", SpawnOptions{})
	if err == nil {
		t.Fatal("expected spawn of a nonexistent binary to fail")
	}
}

func TestWriteAndWritelnRoundTrip(t *testing.T) {
	var mu sync.Mutex
	s := New(syncDispatch(&mu), testLogger())

	var lines []string
	exited := make(chan struct{})
	ref, err := s.Spawn("cat", SpawnOptions{
		OnOutput: func(stream Stream, line string) {
			lines = append(lines, line)
		},
		OnExit: func(error) { close(exited) },
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if err := s.Writeln(ref, "hello"); err != nil {
		t.Fatalf("Writeln: %v", err)
	}
	s.Kill(ref)

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process never reported exit")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 1 || lines[0] != "hello" {
		t.Fatalf("got lines %v, want [hello]", lines)
	}
}

func TestKillOnAlreadyDeadProcessIsNoOp(t *testing.T) {
	var mu sync.Mutex
	s := New(syncDispatch(&mu), testLogger())

	exited := make(chan struct{})
	ref, err := s.Spawn("true", SpawnOptions{
		OnExit: func(error) { close(exited) },
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process never reported exit")
	}

	// Should not panic or block even though the process already exited.
	s.Kill(ref)
}

//go:build !windows

package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/mcerdsim/internal/simerr"
)

func startOrFail(t *testing.T, ctx context.Context, cmdline string, opts Options) *Process {
	t.Helper()
	p, err := NewShellRunner(nil).Start(ctx, cmdline, opts)
	if err != nil {
		t.Fatalf("Start(%q): %v", cmdline, err)
	}
	return p
}

func TestRunSuccess(t *testing.T) {
	var out bytes.Buffer
	p := startOrFail(t, context.Background(), "echo hello", Options{Stdout: &out})
	res := p.Wait()

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
	if got := strings.TrimSpace(out.String()); got != "hello" {
		t.Errorf("stdout = %q, want hello", got)
	}
	if res.EndedAt.Before(res.StartedAt) {
		t.Errorf("ended %v before started %v", res.EndedAt, res.StartedAt)
	}
	select {
	case <-p.Done():
	default:
		t.Error("Done not closed after Wait")
	}
}

func TestRunFailureKeepsStderr(t *testing.T) {
	p := startOrFail(t, context.Background(), "echo broken >&2; exit 3", Options{})
	res := p.Wait()

	var rf *simerr.RunFailure
	if !errors.As(res.Err, &rf) {
		t.Fatalf("expected RunFailure, got %v", res.Err)
	}
	if rf.ExitCode != 3 || res.ExitCode != 3 {
		t.Errorf("exit code = %d/%d, want 3", rf.ExitCode, res.ExitCode)
	}
	if !strings.Contains(rf.Stderr, "broken") {
		t.Errorf("stderr = %q", rf.Stderr)
	}
	if !errors.Is(res.Err, simerr.ErrRunFailure) {
		t.Error("RunFailure does not match ErrRunFailure")
	}
}

func TestStderrTailIsBounded(t *testing.T) {
	cmdline := "i=0; while [ $i -lt 2000 ]; do echo 0123456789 >&2; i=$((i+1)); done; exit 1"
	res := startOrFail(t, context.Background(), cmdline, Options{}).Wait()
	if len(res.Stderr) > StderrTail {
		t.Errorf("stderr kept %d bytes, want <= %d", len(res.Stderr), StderrTail)
	}
	if !strings.HasSuffix(res.Stderr, "0123456789\n") {
		t.Errorf("tail lost the end of the stream: %q", res.Stderr[len(res.Stderr)-20:])
	}
}

func TestCancelKillsProcessGroup(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "survived")

	ctx, cancel := context.WithCancel(context.Background())
	// The background child belongs to the same group and must die too.
	cmdline := "(sleep 2; touch " + marker + ") & sleep 30"
	p := startOrFail(t, ctx, cmdline, Options{})

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-p.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("process not reaped after cancel")
	}
	res := p.Wait()
	if !errors.Is(res.Err, simerr.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", res.Err)
	}

	time.Sleep(2500 * time.Millisecond)
	if _, err := os.Stat(marker); err == nil {
		t.Error("child of cancelled shell kept running")
	}
}

func TestStartRejectsEmptyAndCancelled(t *testing.T) {
	r := NewShellRunner(nil)
	if _, err := r.Start(context.Background(), "  ", Options{}); !errors.Is(err, simerr.ErrConfiguration) {
		t.Errorf("empty command: got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Start(ctx, "true", Options{}); !errors.Is(err, simerr.ErrCancelled) {
		t.Errorf("cancelled context: got %v", err)
	}
}

func TestWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	res := startOrFail(t, context.Background(), "touch here", Options{Dir: dir}).Wait()
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if _, err := os.Stat(filepath.Join(dir, "here")); err != nil {
		t.Errorf("command did not run in %s: %v", dir, err)
	}
}

func TestCheckExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "mcerd")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CheckExecutable(exe); err != nil {
		t.Errorf("executable rejected: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "nope")},
		{"not executable", plain},
		{"directory", dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckExecutable(tt.path)
			var se *simerr.SpawnError
			if !errors.As(err, &se) {
				t.Fatalf("expected SpawnError, got %v", err)
			}
			if se.Path != tt.path {
				t.Errorf("path = %q, want %q", se.Path, tt.path)
			}
			if !errors.Is(err, simerr.ErrSpawn) {
				t.Error("SpawnError does not match ErrSpawn")
			}
		})
	}
}

func TestTailBuffer(t *testing.T) {
	tb := newTailBuffer(5)
	tb.Write([]byte("abc"))
	tb.Write([]byte("defg"))
	if got := tb.String(); got != "cdefg" {
		t.Errorf("tail = %q, want cdefg", got)
	}
}

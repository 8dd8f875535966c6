// Package testutil provides shared fixtures for the simulation's tests:
// deadline polling for cross-goroutine state, socket paths short enough
// for a unix address, and canned clock values.
package testutil

import (
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// pollInterval is how often WaitFor re-checks its condition.
const pollInterval = time.Millisecond

// WaitFor polls cond until it holds or the timeout lapses, then fails
// the test. Most simulation state is published through shared atomics,
// so tests observe progress by polling exactly like the processes do.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, format string, args ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(pollInterval)
	}
	t.Fatalf(format, args...)
}

// SocketPath returns a listenable socket path under the test's temp
// directory. Unix socket addresses are capped near 100 bytes, so the
// test fails fast with a clear message rather than an obscure bind
// error when the temp directory nests too deep.
func SocketPath(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if len(path) > 100 {
		t.Fatalf("socket path %q exceeds the unix address limit", path)
	}
	return path
}

// SkipIfNoGofmt skips the test when gofmt is not installed.
func SkipIfNoGofmt(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("gofmt"); err != nil {
		t.Skip("gofmt not found in PATH, skipping test")
	}
}

// SkipIfNoGolangciLint skips the test when golangci-lint is not
// installed.
func SkipIfNoGolangciLint(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("golangci-lint"); err != nil {
		t.Skip("golangci-lint not found in PATH, skipping test")
	}
}

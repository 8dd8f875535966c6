package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates log file", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, "director.log")

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("creates nested directories", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, "run", "logs", "workers.log")

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("appends to existing file", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, "users.log")

		if err := os.WriteFile(logPath, []byte("old\n"), 0644); err != nil {
			t.Fatalf("failed to seed log file: %v", err)
		}

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}

		if got := rw.CurrentSize(); got != 4 {
			t.Errorf("CurrentSize() = %d, want 4 (existing bytes)", got)
		}

		if _, err := rw.Write([]byte("new\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		_ = rw.Close()

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(content), "old") {
			t.Error("existing content was lost")
		}
		if !strings.Contains(string(content), "new") {
			t.Error("appended content was not written")
		}
	})
}

func TestRotatingWriter_NoRotationUnderLimit(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "broker.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()

	for i := 0; i < 100; i++ {
		if _, err := rw.Write([]byte("a short line that stays well under one megabyte\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	if _, err := os.Stat(logPath + ".1"); !os.IsNotExist(err) {
		t.Error("backup file created even though size stayed under the limit")
	}
}

func TestRotatingWriter_RotatesAtLimit(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "director.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	if _, err := rw.Write(chunk); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	// Second chunk pushes past 1MB, so the live file rotates before the write.
	if _, err := rw.Write(chunk); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Fatalf("expected backup %s.1 after rotation: %v", logPath, err)
	}

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("failed to stat live log: %v", err)
	}
	if info.Size() != int64(len(chunk)) {
		t.Errorf("live log size = %d, want %d (only the post-rotation write)", info.Size(), len(chunk))
	}
}

func TestRotatingWriter_MaxBackupsEnforced(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "workers.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()

	chunk := bytes.Repeat([]byte("y"), 700*1024)
	for i := 0; i < 4; i++ {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Errorf("expected backup %s.1 to exist: %v", logPath, err)
	}
	if _, err := os.Stat(logPath + ".2"); !os.IsNotExist(err) {
		t.Errorf("backup %s.2 should not exist with MaxBackups=1", logPath)
	}
}

func TestRotatingWriter_ZeroBackupsDiscards(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "users.log")

	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 0})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()

	chunk := bytes.Repeat([]byte("z"), 700*1024)
	for i := 0; i < 3; i++ {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(logPath + ".1"); !os.IsNotExist(err) {
		t.Error("backup created even though MaxBackups=0")
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "broker.log")

	rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}

	if _, err := rw.Write([]byte("late\n")); err == nil {
		t.Error("Write after Close should fail")
	}
}

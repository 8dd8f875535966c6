package internal

import (
	"bytes"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// moduleRoot resolves the module root from wherever the test binary
// runs: the internal/ directory itself or the directory above it.
func moduleRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if filepath.Base(wd) == "internal" {
		return filepath.Dir(wd)
	}
	return wd
}

// TestGofmtCompliance checks every Go source file in the module against
// gofmt. Directories the Go toolchain ignores (hidden, underscore,
// vendor) are skipped. On failure run: gofmt -w .
func TestGofmtCompliance(t *testing.T) {
	root := moduleRoot(t)

	var unformatted []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") ||
				strings.HasPrefix(name, "_") || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		formatted, err := format.Source(content)
		if err != nil {
			// Unparseable files are the compiler's problem, not gofmt's.
			return nil
		}
		if !bytes.Equal(content, formatted) {
			rel, _ := filepath.Rel(root, path)
			unformatted = append(unformatted, rel)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk %s: %v", root, err)
	}

	for _, f := range unformatted {
		t.Errorf("not gofmt-clean: %s", f)
	}
}

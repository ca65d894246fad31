package trace_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/archlab/cachesim/trace"
)

func writeTrace(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestMultiLevelParsesReadsAndWrites(t *testing.T) {
	path := writeTrace(t, "r 1000\nw 2000\n")
	r, err := trace.OpenMultiLevel(path)
	if err != nil {
		t.Fatalf("OpenMultiLevel: %v", err)
	}
	defer r.Close()

	a, err := r.Next()
	if err != nil || a.Op != 'r' || a.Addr != 0x1000 {
		t.Fatalf("first access = %+v, err = %v", a, err)
	}
	a, err = r.Next()
	if err != nil || a.Op != 'w' || a.Addr != 0x2000 {
		t.Fatalf("second access = %+v, err = %v", a, err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestMultiLevelRejectsIllegalOp(t *testing.T) {
	path := writeTrace(t, "x 1000\n")
	r, err := trace.OpenMultiLevel(path)
	if err != nil {
		t.Fatalf("OpenMultiLevel: %v", err)
	}
	defer r.Close()

	if _, err := r.Next(); err == nil {
		t.Fatalf("expected an error for an illegal op")
	}
}

func TestSplitSkipsUnknownType(t *testing.T) {
	path := writeTrace(t, "r 1000 X\nr 1000 D\n")
	r, err := trace.OpenSplit(path)
	if err != nil {
		t.Fatalf("OpenSplit: %v", err)
	}
	defer r.Close()

	_, err = r.Next()
	if !errors.Is(err, trace.ErrSkip) {
		t.Fatalf("expected ErrSkip, got %v", err)
	}

	a, err := r.Next()
	if err != nil || a.Kind != 'D' {
		t.Fatalf("second access = %+v, err = %v", a, err)
	}
}

package local

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestPutAndOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.Put(ctx, "report.pdf", "application/pdf", bytes.NewReader([]byte("hello")))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}

	rc, err := store.Open(ctx, "report.pdf")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestPutOverwritesExistingKey(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, err := store.Put(ctx, "report.pdf", "application/pdf", bytes.NewReader([]byte("version one"))); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if _, err := store.Put(ctx, "report.pdf", "application/pdf", bytes.NewReader([]byte("v2"))); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	rc, err := store.Open(ctx, "report.pdf")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "v2" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestPutRejectsEscapingKeys(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"../escape.pdf", "/etc/passwd"} {
		if _, err := store.Put(ctx, key, "application/pdf", bytes.NewReader([]byte("x"))); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

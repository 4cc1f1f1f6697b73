package blob

import (
	"context"
	"os"
	"testing"
)

func TestStoreUploadDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	location, err := store.Upload(ctx, "tasks/t1/cut-v3.mp4", []byte("frames"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	content, err := os.ReadFile(location)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "frames" {
		t.Fatalf("unexpected content %q", content)
	}

	if err := store.Delete(ctx, location); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(location); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat error = %v", err)
	}

	// Deleting again is a no-op.
	if err := store.Delete(ctx, location); err != nil {
		t.Fatalf("Delete() second call error = %v", err)
	}
}

func TestStoreRejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := store.Upload(ctx, "../outside.txt", []byte("x")); err == nil {
		t.Fatal("expected error for path escaping root")
	}
	if err := store.Delete(ctx, "/etc/passwd"); err == nil {
		t.Fatal("expected error for absolute path outside root")
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	if _, err := NewStore("  "); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorePutAndRemove(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	payload := "site plan contents"
	url, err := store.Put(ctx, "site-plan_1700000000.pdf", strings.NewReader(payload), int64(len(payload)), "application/pdf")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if url != "/uploads/site-plan_1700000000.pdf" {
		t.Errorf("unexpected url: %s", url)
	}

	written, err := os.ReadFile(filepath.Join(store.Dir(), "site-plan_1700000000.pdf"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(written) != payload {
		t.Errorf("stored contents mismatch: %q", written)
	}

	if err := store.Remove(ctx, url); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "site-plan_1700000000.pdf")); !os.IsNotExist(err) {
		t.Error("expected file to be removed")
	}
}

func TestLocalStoreRejectsPathTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	url, err := store.Put(ctx, "../escape.txt", strings.NewReader("x"), 1, "text/plain")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if url != "/uploads/escape.txt" {
		t.Errorf("expected traversal to be stripped, got %s", url)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "escape.txt")); err != nil {
		t.Errorf("expected file inside the uploads dir: %v", err)
	}
}

func TestLocalStoreRemoveMissingIsNoop(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	if err := store.Remove(context.Background(), "/uploads/never-existed.txt"); err != nil {
		t.Errorf("expected removing a missing blob to be a no-op, got %v", err)
	}
}

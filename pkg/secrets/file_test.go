package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_Get(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gemini_key"), []byte("k-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	store, err := NewStore(Config{Provider: "file", File: FileConfig{Dir: dir}})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	got, err := store.Get(ctx, "gemini_key")
	if err != nil || got != "k-file" {
		t.Fatalf("get: got %q, %v", got, err)
	}
	// 缓存命中：文件删除后仍返回原值
	if err := os.Remove(filepath.Join(dir, "gemini_key")); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Get(ctx, "gemini_key"); got != "k-file" {
		t.Fatalf("cached: got %q", got)
	}

	if _, err := store.Get(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := store.Get(ctx, "../etc/passwd"); err == nil {
		t.Fatal("expected error for path traversal")
	}

	v, err := Resolve(ctx, store, "secret:gemini_key")
	if err != nil || v != "k-file" {
		t.Fatalf("resolve: got %q, %v", v, err)
	}
}

func TestNewFileStore_MissingDir(t *testing.T) {
	if _, err := NewFileStore(FileConfig{Dir: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/odshub/internal/apperr"
	"github.com/starford/odshub/internal/checksum"
	"github.com/starford/odshub/internal/models"
)

func tempContent(t *testing.T, files map[string]string) *FS {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestRead(t *testing.T) {
	s := tempContent(t, map[string]string{"pages/about/intro.md": "# Hello\n"})
	got, err := s.Read(context.Background(), "pages/about/intro.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "# Hello\n" {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	s := tempContent(t, nil)
	_, err := s.Read(context.Background(), "pages/missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got := apperr.Status(err); got != 404 {
		t.Errorf("status = %d, want 404", got)
	}
}

func TestList(t *testing.T) {
	s := tempContent(t, map[string]string{
		"pages/examples/a.md":   "a",
		"pages/examples/b.txt":  "b",
		"pages/guidance/c.md":   "c",
		"pages/.hidden/d.md":    "d",
		"pages/examples/.draft": "x",
	})

	items, err := s.List(context.Background(), "pages")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []models.Entry{
		{Name: "examples", Path: "pages/examples", Type: models.EntryDir},
		{Name: "guidance", Path: "pages/guidance", Type: models.EntryDir},
	}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(items), len(want), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %+v, want %+v", i, items[i], want[i])
		}
	}

	files, err := s.List(context.Background(), "pages/examples")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len = %d, want 2", len(files))
	}
	if !files[0].IsMarkdown() || files[1].IsMarkdown() {
		t.Errorf("markdown detection wrong: %+v", files)
	}
	if files[0].SHA != checksum.Sum([]byte("a")) {
		t.Errorf("sha = %q", files[0].SHA)
	}
}

func TestListMissingDir(t *testing.T) {
	s := tempContent(t, nil)
	if _, err := s.List(context.Background(), "pages"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempContent(t, nil)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(context.Background(), p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if _, err := s.List(context.Background(), p); err == nil {
			t.Errorf("expected error for list of %q", p)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/odshub-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "odshub-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/halvard/ansuz/internal/apperr"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("libs/note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("libs/note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Read = %q, want %q", got, content)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("a.md", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "a.md" {
			t.Errorf("unexpected entry %q", e.Name())
		}
	}
}

func TestPathTraversalRejected(t *testing.T) {
	s := tempRoot(t)
	for _, p := range []string{"../secret.md", "a/../../b.md", "..\\evil.md"} {
		_, err := s.Read(p)
		if !errors.Is(err, apperr.ErrPathTraversal) {
			t.Errorf("Read(%q) err = %v, want ErrPathTraversal", p, err)
		}
	}
}

func TestAbsolutePathRejected(t *testing.T) {
	s := tempRoot(t)
	_, err := s.Read("/etc/passwd")
	if !errors.Is(err, apperr.ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestListSkipsHiddenDirsAndNonMarkdown(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("libs/a.md", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("tools/b.md", []byte("b")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("libs/readme.txt", []byte("t")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(".history/libs_a.md/20250101_000000.snap", []byte("old")); err != nil {
		t.Fatal(err)
	}
	// A .md file inside the history store must stay invisible too.
	if err := s.Write(".history/x/stale.md", []byte("x")); err != nil {
		t.Fatal(err)
	}

	infos, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	seen := map[string]bool{}
	for _, info := range infos {
		seen[info.Path] = true
	}
	if len(infos) != 2 || !seen["libs/a.md"] || !seen["tools/b.md"] {
		t.Errorf("List = %v", infos)
	}
}

func TestAppendPreservesPrefix(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("n.md", []byte("# Title\n")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append("n.md", []byte("\n\nmore")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, _ := s.Read("n.md")
	if string(got) != "# Title\n\n\nmore" {
		t.Errorf("content = %q", got)
	}
}

func TestExists(t *testing.T) {
	s := tempRoot(t)
	if ok, _ := s.Exists("nope.md"); ok {
		t.Error("Exists(nope.md) = true")
	}
	if err := s.Write("yes.md", []byte("y")); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists("yes.md"); !ok {
		t.Error("Exists(yes.md) = false")
	}
	// Directories are not documents.
	if err := os.MkdirAll(filepath.Join(s.Root(), "adir"), 0o755); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists("adir"); ok {
		t.Error("Exists(adir) = true for a directory")
	}
}

func TestDelete(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("gone.md", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("gone.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := s.Exists("gone.md"); ok {
		t.Error("file still exists after Delete")
	}
}

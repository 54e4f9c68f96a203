package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/halvard/ansuz/internal/checksum"
	"github.com/halvard/ansuz/internal/storage"
)

// watcherTestEnv sets up a knowledge root, storage, DB, and a minimal index
// function for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB, IndexFunc) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	dbFile, err := os.CreateTemp("", "ansuz-watcher-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	indexFn := func(path string, data []byte) error {
		return db.Upsert(DocRow{
			Path:      path,
			Checksum:  checksum.Sum(data),
			Tags:      []string{},
			UpdatedAt: time.Now(),
		}, string(data))
	}
	return root, store, db, indexFn
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	root, store, db, indexFn := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, root, indexFn, testLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new.md")
		return cs != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.md" {
				return true
			}
		}
		return false
	}, "expected created:new.md callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root, store, db, indexFn := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, indexFn, testLogger(), nil)

	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(root, "libs")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("libs/deep.md")
		return cs != ""
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_HistoryIgnored(t *testing.T) {
	root, store, db, indexFn := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, indexFn, testLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	histDir := filepath.Join(root, ".history", "d.md")
	_ = os.MkdirAll(histDir, 0o755)
	_ = os.WriteFile(filepath.Join(histDir, "20250101_120000.snap"), []byte("# Old"), 0o644)

	// Also write a real document so we have a positive signal that the
	// watcher processed events past the snapshot write.
	_ = os.WriteFile(filepath.Join(root, "real.md"), []byte("# Real"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("real.md")
		return cs != ""
	}, "real document not indexed")

	all, err := db.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	for path := range all {
		if path != "real.md" {
			t.Errorf("unexpected indexed path %q", path)
		}
	}
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	root, store, db, indexFn := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(root, "del.md"), []byte("# Delete Me"), 0o644)
	if err := Sync(db, store, indexFn, testLogger()); err != nil {
		t.Fatal(err)
	}

	cs, _ := db.GetChecksum("del.md")
	if cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, indexFn, testLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(root, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.md")
		return cs == ""
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	root, store, db, indexFn := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(root, "old.md"), []byte("# Rename"), 0o644)
	if err := Sync(db, store, indexFn, testLogger()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, indexFn, testLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(root, "old.md"), filepath.Join(root, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.md")
		newCS, _ := db.GetChecksum("renamed.md")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}

// Package history captures pre-mutation snapshots of documents and computes
// diffs against the most recent one.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/halvard/ansuz/internal/apperr"
	"github.com/halvard/ansuz/internal/models"
	"github.com/halvard/ansuz/internal/storage"
)

// Dir is the hidden directory under the knowledge root holding all snapshots.
const Dir = ".history"

const (
	snapSuffix = ".snap"
	stampFmt   = "20060102_150405"
)

// History manages the append-only snapshot store. Snapshots are grouped per
// document in a directory named after the document path with separators
// flattened, and named by capture timestamp with second granularity.
type History struct {
	root  string // absolute knowledge root
	store storage.Provider
	now   func() time.Time
}

// New creates a History over the given root and store.
func New(root string, store storage.Provider) *History {
	return &History{root: root, store: store, now: time.Now}
}

// WithClock overrides the timestamp source. Tests use this to force distinct
// snapshot names within the same second.
func (h *History) WithClock(now func() time.Time) *History {
	h.now = now
	return h
}

// safeName flattens a document path into a single directory component.
func safeName(docPath string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(docPath)
}

func (h *History) docDir(docPath string) string {
	return filepath.Join(h.root, Dir, safeName(docPath))
}

// Snapshot copies the current content of docPath into the history store.
// It is a no-op returning nil when the document does not exist yet: the
// first creation has nothing to snapshot. Existing snapshots are never
// touched.
func (h *History) Snapshot(docPath string) (*models.SnapshotInfo, error) {
	ok, err := h.store.Exists(docPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	data, err := h.store.Read(docPath)
	if err != nil {
		return nil, err
	}

	taken := h.now()
	name := taken.Format(stampFmt) + snapSuffix
	rel := Dir + "/" + safeName(docPath) + "/" + name
	if err := h.store.Write(rel, data); err != nil {
		return nil, fmt.Errorf("history: snapshot %s: %w", docPath, err)
	}
	return &models.SnapshotInfo{Name: name, TakenAt: taken}, nil
}

// List returns the snapshots captured for docPath, oldest first.
func (h *History) List(docPath string) ([]models.SnapshotInfo, error) {
	entries, err := os.ReadDir(h.docDir(docPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: list %s: %w", docPath, err)
	}

	var out []models.SnapshotInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapSuffix) {
			continue
		}
		taken, err := time.ParseInLocation(stampFmt, strings.TrimSuffix(e.Name(), snapSuffix), time.Local)
		if err != nil {
			continue
		}
		out = append(out, models.SnapshotInfo{Name: e.Name(), TakenAt: taken})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Diff returns a unified diff between the most recent snapshot of docPath
// and its current on-disk content. ErrNoHistory is returned when no snapshot
// exists.
func (h *History) Diff(docPath string) (string, error) {
	snaps, err := h.List(docPath)
	if err != nil {
		return "", err
	}
	if len(snaps) == 0 {
		return "", fmt.Errorf("history: %s: %w", docPath, apperr.ErrNoHistory)
	}
	latest := snaps[len(snaps)-1]

	old, err := os.ReadFile(filepath.Join(h.docDir(docPath), latest.Name))
	if err != nil {
		return "", fmt.Errorf("history: read snapshot: %w", err)
	}
	current, err := h.store.Read(docPath)
	if err != nil {
		return "", err
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(old)),
		B:        difflib.SplitLines(string(current)),
		FromFile: fmt.Sprintf("snapshot (%s)", latest.Name),
		ToFile:   "current",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("history: diff: %w", err)
	}
	return text, nil
}

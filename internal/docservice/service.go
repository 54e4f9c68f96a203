// Package docservice implements the structured mutation engine: it resolves
// document paths, addresses sections by derived IDs, enforces the dual-lock
// precondition, and snapshots documents before every destructive write.
package docservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/halvard/ansuz/internal/apperr"
	"github.com/halvard/ansuz/internal/checksum"
	"github.com/halvard/ansuz/internal/frontmatter"
	"github.com/halvard/ansuz/internal/history"
	"github.com/halvard/ansuz/internal/index"
	"github.com/halvard/ansuz/internal/outline"
	"github.com/halvard/ansuz/internal/resolver"
	"github.com/halvard/ansuz/internal/storage"
)

// AppendID is the sentinel node ID that appends to the end of a document
// instead of replacing a section.
const AppendID = "APPEND"

// Service coordinates storage, path resolution, outline addressing, and
// snapshot history. Each call rebuilds the outline from the file; nothing is
// cached across requests.
type Service struct {
	store    storage.Provider
	resolver *resolver.Resolver
	history  *history.History
	db       index.DocIndex
	now      func() time.Time
}

// New creates a document service. db may be nil when no search index is
// attached (MCP stdio mode without the HTTP stack still works).
func New(store storage.Provider, res *resolver.Resolver, hist *history.History, db index.DocIndex) *Service {
	return &Service{store: store, resolver: res, history: hist, db: db, now: time.Now}
}

// WithClock overrides the time source used for frontmatter dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Outline is the read-only structure of a document.
type Outline struct {
	Path      string         `json:"path"`
	Metadata  map[string]any `json:"metadata"`
	Structure []outline.Node `json:"structure"`
}

// GetOutline resolves path and returns the document's metadata and heading
// structure.
func (s *Service) GetOutline(_ context.Context, path string) (*Outline, error) {
	resolved, err := s.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.Exists(resolved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("docservice: %s: %w", resolved, apperr.ErrNotFound)
	}
	data, err := s.store.Read(resolved)
	if err != nil {
		return nil, err
	}

	content := string(data)
	meta, _ := frontmatter.DecodeRaw(content)
	structure := outline.Build(content)
	if structure == nil {
		structure = []outline.Node{}
	}
	return &Outline{Path: resolved, Metadata: meta, Structure: structure}, nil
}

// CreateRequest carries the metadata skeleton for a new document.
type CreateRequest struct {
	Title       string
	Category    string
	Tags        string // comma-separated
	Description string
	Name        string // optional file name, without path or extension
}

// Create writes a new document containing encoded frontmatter and a single
// top-level heading. The target path is {category}/{slug}.md; creation never
// overwrites.
func (s *Service) Create(_ context.Context, req CreateRequest) (string, error) {
	var tags []string
	for _, t := range strings.Split(req.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	slug := req.Name
	if slug != "" {
		slug = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(slug))
		slug = strings.TrimSuffix(slug, ".md")
	} else {
		slug = strings.NewReplacer(" ", "_", "/", "_").Replace(strings.ToLower(req.Title))
	}

	// The exact path is authoritative for creation: no fuzzy resolution.
	target, err := resolver.Normalize(req.Category + "/" + slug + ".md")
	if err != nil {
		return "", err
	}

	exists, err := s.store.Exists(target)
	if err != nil {
		return "", err
	}
	if exists {
		// Return the target so callers can point at the conflicting file.
		return target, fmt.Errorf("docservice: %s: %w", target, apperr.ErrAlreadyExists)
	}

	meta := frontmatter.Meta{
		Title:       req.Title,
		Category:    req.Category,
		Tags:        tags,
		Description: req.Description,
	}
	content := frontmatter.Encode(meta, s.now()) + "\n# " + req.Title + "\n\n"

	if err := s.store.Write(target, []byte(content)); err != nil {
		return "", err
	}
	s.indexDocument(target, []byte(content))
	return target, nil
}

// UpdateRequest describes a section mutation.
type UpdateRequest struct {
	Path          string
	NodeID        string // dotted section ID, or AppendID
	ExpectedTitle string // dual-lock: must match the target heading's title
	NewContent    string // replaces the section verbatim, heading included
	// ExpectedChecksum, when non-empty, must equal the SHA-256 of the
	// current content (compare-and-swap against concurrent writers).
	ExpectedChecksum string
}

// UpdateResult reports the line counts affected by a successful update.
type UpdateResult struct {
	Path         string `json:"path"`
	NodeID       string `json:"node_id"`
	RemovedLines int    `json:"removed_lines"`
	AddedLines   int    `json:"added_lines"`
}

// UpdateSection replaces the addressed section with req.NewContent, or
// appends when req.NodeID is AppendID. A snapshot of the pre-mutation
// content is always captured before the first byte is written.
func (s *Service) UpdateSection(_ context.Context, req UpdateRequest) (*UpdateResult, error) {
	resolved, err := s.resolver.Resolve(req.Path)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.Exists(resolved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("docservice: %s: %w", resolved, apperr.ErrNotFound)
	}

	data, err := s.store.Read(resolved)
	if err != nil {
		return nil, err
	}
	content := string(data)

	if req.ExpectedChecksum != "" && req.ExpectedChecksum != checksum.Sum(data) {
		return nil, fmt.Errorf("docservice: %s: %w", resolved, apperr.ErrConflict)
	}

	if req.NodeID == AppendID {
		// Append never collides with existing structure: no lock check.
		if _, err := s.history.Snapshot(resolved); err != nil {
			return nil, err
		}
		suffix := "\n\n" + req.NewContent
		if err := s.store.Append(resolved, []byte(suffix)); err != nil {
			return nil, err
		}
		s.reindex(resolved)
		return &UpdateResult{
			Path:       resolved,
			NodeID:     AppendID,
			AddedLines: len(strings.Split(req.NewContent, "\n")),
		}, nil
	}

	lines := strings.Split(content, "\n")
	nodes := outline.Build(content)
	target, end, found := outline.SectionRange(nodes, req.NodeID, len(lines))
	if !found {
		return nil, fmt.Errorf("docservice: no section with id %s: %w", req.NodeID, apperr.ErrSectionNotFound)
	}

	// Dual lock: the caller proves its outline is current by supplying the
	// target's title. Substring match, case-insensitive, trimmed.
	want := strings.ToLower(strings.TrimSpace(req.ExpectedTitle))
	have := strings.ToLower(strings.TrimSpace(target.Title))
	if !strings.Contains(have, want) {
		return nil, fmt.Errorf("docservice: section %s is titled %q, not %q: %w",
			req.NodeID, target.Title, req.ExpectedTitle, apperr.ErrLockMismatch)
	}

	if _, err := s.history.Snapshot(resolved); err != nil {
		return nil, err
	}

	newLines := strings.Split(req.NewContent, "\n")
	final := make([]string, 0, target.LineStart+len(newLines)+len(lines)-end)
	final = append(final, lines[:target.LineStart]...)
	final = append(final, newLines...)
	final = append(final, lines[end:]...)

	out := strings.Join(final, "\n")
	if strings.HasSuffix(content, "\n") && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if err := s.store.Write(resolved, []byte(out)); err != nil {
		return nil, err
	}
	s.indexDocument(resolved, []byte(out))

	return &UpdateResult{
		Path:         resolved,
		NodeID:       req.NodeID,
		RemovedLines: end - target.LineStart,
		AddedLines:   len(newLines),
	}, nil
}

// Delete removes a document after capturing a final snapshot, so the content
// stays recoverable from history. The index row is removed as well.
func (s *Service) Delete(_ context.Context, path string) error {
	resolved, err := s.resolver.Resolve(path)
	if err != nil {
		return err
	}
	ok, err := s.store.Exists(resolved)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("docservice: %s: %w", resolved, apperr.ErrNotFound)
	}
	if _, err := s.history.Snapshot(resolved); err != nil {
		return err
	}
	if err := s.store.Delete(resolved); err != nil {
		return err
	}
	if s.db != nil {
		_ = s.db.Delete(resolved)
	}
	return nil
}

// Changes returns the unified diff between the latest snapshot of path and
// its current content.
func (s *Service) Changes(_ context.Context, path string) (string, error) {
	resolved, err := s.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	return s.history.Diff(resolved)
}

// IndexDocument parses data and upserts it into the search index. Exported
// so the initial sync and the watcher can reuse it.
func (s *Service) IndexDocument(path string, data []byte) error {
	if s.db == nil {
		return nil
	}
	meta, body := frontmatter.Decode(string(data))
	title := meta.Title
	if title == "" {
		for _, n := range outline.Build(string(data)) {
			if n.Level == 1 {
				title = n.Title
				break
			}
		}
	}
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}
	return s.db.Upsert(index.DocRow{
		Path:      path,
		Title:     title,
		Category:  meta.Category,
		Checksum:  checksum.Sum(data),
		Tags:      tags,
		UpdatedAt: s.now(),
	}, body)
}

// indexDocument is the fire-and-forget variant used on the mutation path.
// Index staleness self-heals via sync; the write itself must not fail.
func (s *Service) indexDocument(path string, data []byte) {
	_ = s.IndexDocument(path, data)
}

func (s *Service) reindex(path string) {
	data, err := s.store.Read(path)
	if err != nil {
		return
	}
	s.indexDocument(path, data)
}

// Package catalog renders the on-demand listing of all documents and their
// metadata.
package catalog

import (
	"path"
	"strings"

	"github.com/halvard/ansuz/internal/frontmatter"
	"github.com/halvard/ansuz/internal/storage"
)

// Entry is a read-only projection of one document's metadata plus its path.
type Entry struct {
	Path        string   `json:"path"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Scanner walks the knowledge root and builds catalog entries. Entries are
// recomputed on every request; the files are the only source of truth.
type Scanner struct {
	store storage.Provider
}

// New creates a Scanner over the given store.
func New(store storage.Provider) *Scanner {
	return &Scanner{store: store}
}

// List returns one entry per document, in directory-walk order (callers must
// not rely on any particular ordering). category, when non-empty, is a
// case-insensitive substring filter. detail adds description and tags to
// each entry. Metadata extraction is best-effort: a document without
// parseable frontmatter is listed under its file name with category
// "unknown".
func (s *Scanner) List(category string, detail bool) ([]Entry, error) {
	infos, err := s.store.List("")
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(infos))
	for _, info := range infos {
		data, err := s.store.Read(info.Path)
		if err != nil {
			continue
		}
		meta, _ := frontmatter.Decode(string(data))

		cat := meta.Category
		if cat == "" {
			cat = "unknown"
		}
		if category != "" && !strings.Contains(strings.ToLower(cat), strings.ToLower(category)) {
			continue
		}

		title := meta.Title
		if title == "" {
			title = path.Base(info.Path)
		}

		e := Entry{Path: info.Path, Title: title, Category: cat}
		if detail {
			e.Description = meta.Description
			if e.Description == "" {
				e.Description = "No description."
			}
			e.Tags = meta.Tags
			if e.Tags == nil {
				e.Tags = []string{}
			}
		}
		out = append(out, e)
	}

	return out, nil
}

// Package resolver normalises and disambiguates caller-supplied document paths.
package resolver

import (
	"fmt"
	"path"
	"strings"

	"github.com/halvard/ansuz/internal/apperr"
	"github.com/halvard/ansuz/internal/storage"
)

// Resolver maps loose caller paths onto exact root-relative paths.
type Resolver struct {
	store storage.Provider
}

// New creates a Resolver over the given store.
func New(store storage.Provider) *Resolver {
	return &Resolver{store: store}
}

// Normalize trims whitespace and leading slashes and rejects traversal
// segments. It does not consult the file system, so it is the right entry
// point for create operations where the exact path is authoritative.
func Normalize(p string) (string, error) {
	clean := strings.TrimLeft(strings.TrimSpace(p), "/\\")
	for _, seg := range strings.FieldsFunc(clean, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return "", fmt.Errorf("resolver: %w: %s", apperr.ErrPathTraversal, p)
		}
	}
	return strings.ReplaceAll(clean, "\\", "/"), nil
}

// Resolve normalises p and, when no file exists at the exact path, falls back
// to a base-name search across the whole tree (the history store is excluded
// by the storage walk). Zero matches return the normalised input unresolved
// so the caller decides how to handle a missing file; more than one match is
// an AmbiguousPathError listing every candidate.
func (r *Resolver) Resolve(p string) (string, error) {
	clean, err := Normalize(p)
	if err != nil {
		return "", err
	}

	if ok, err := r.store.Exists(clean); err != nil {
		return "", err
	} else if ok {
		return clean, nil
	}

	base := path.Base(clean)
	infos, err := r.store.List("")
	if err != nil {
		return "", fmt.Errorf("resolver: scan root: %w", err)
	}

	var candidates []string
	for _, info := range infos {
		if path.Base(info.Path) == base {
			candidates = append(candidates, info.Path)
		}
	}

	switch len(candidates) {
	case 0:
		return clean, nil
	case 1:
		return candidates[0], nil
	default:
		return "", &apperr.AmbiguousPathError{Query: p, Candidates: candidates}
	}
}

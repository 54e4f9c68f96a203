// Package frontmatter splits documents into a YAML metadata block and a
// Markdown body, and serialises metadata back deterministically.
package frontmatter

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Meta holds the document metadata schema. Field order here is the canonical
// serialisation order.
type Meta struct {
	Title       string   `yaml:"title,omitempty" json:"title,omitempty"`
	Category    string   `yaml:"category,omitempty" json:"category,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	LastUpdated string   `yaml:"last_updated,omitempty" json:"last_updated,omitempty"`
}

// IsZero reports whether no metadata field is set.
func (m Meta) IsZero() bool {
	return m.Title == "" && m.Category == "" && len(m.Tags) == 0 &&
		m.Description == "" && m.LastUpdated == ""
}

// Decode splits content into metadata and body. A metadata block must start
// at the first line with a --- delimiter and be closed by a second one.
// Malformed YAML or a missing closing delimiter degrades gracefully: the
// whole content becomes the body and the metadata is empty. Decode never
// fails.
func Decode(content string) (Meta, string) {
	block, body, ok := split(content)
	if !ok {
		return Meta{}, content
	}
	var m Meta
	if err := yaml.Unmarshal([]byte(block), &m); err != nil {
		return Meta{}, content
	}
	return m, body
}

// DecodeRaw is Decode for consumers that need the loose key/value view of the
// metadata block, preserving keys outside the canonical schema.
func DecodeRaw(content string) (map[string]any, string) {
	block, body, ok := split(content)
	if !ok {
		return map[string]any{}, content
	}
	var m map[string]any
	if err := yaml.Unmarshal([]byte(block), &m); err != nil || m == nil {
		return map[string]any{}, content
	}
	return m, body
}

// Encode serialises m wrapped in --- delimiter lines. last_updated is filled
// with now's date when absent.
func Encode(m Meta, now time.Time) string {
	if m.LastUpdated == "" {
		m.LastUpdated = now.Format("2006-01-02")
	}
	out, err := yaml.Marshal(m)
	if err != nil {
		// Meta contains only strings and string slices; Marshal cannot fail.
		panic(fmt.Sprintf("frontmatter: marshal: %v", err))
	}
	return delim + "\n" + strings.TrimRight(string(out), "\n") + "\n" + delim + "\n"
}

// split separates the raw YAML block from the body. ok is false when the
// content carries no well-formed delimiter pair.
func split(content string) (block, body string, ok bool) {
	if !strings.HasPrefix(content, delim) {
		return "", "", false
	}
	rest := content[len(delim):]
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		return "", "", false
	}
	block = rest[:idx]
	after := rest[idx+1+len(delim):]
	// Drop the remainder of the closing delimiter line.
	if nl := strings.Index(after, "\n"); nl >= 0 {
		after = after[nl+1:]
	} else {
		after = ""
	}
	return block, after, true
}

// Package outline scans Markdown content and assigns hierarchical section IDs
// to headings. The structure is derived on every scan and never stored: two
// scans of unchanged content always produce identical IDs.
package outline

import (
	"strconv"
	"strings"
)

// Node represents one Markdown heading.
type Node struct {
	// ID is a dot-separated sequence of per-level counters, e.g. "1.2.1".
	ID string `json:"id"`
	// Title is the heading text with the leading # markers stripped.
	Title string `json:"title"`
	// Level is the heading depth, 1-6.
	Level int `json:"level"`
	// LineStart is the 0-based index of the heading line within the
	// document's full line sequence.
	LineStart int `json:"line_start"`
}

// lineKind classifies a single line before any addressing happens. Keeping
// lexing separate from ID assignment lets the classifier suppress headings
// inside fenced code blocks and the frontmatter block.
type lineKind int

const (
	kindText lineKind = iota
	kindHeading
	kindFence
	kindFenced
	kindFrontmatter
)

type classified struct {
	kind  lineKind
	level int    // heading depth, only for kindHeading
	title string // heading text, only for kindHeading
}

// classify assigns a lineKind to every line. A heading is 1-6 # characters
// followed by whitespace and non-empty text, outside code fences and outside
// a leading frontmatter block.
func classify(lines []string) []classified {
	out := make([]classified, len(lines))

	// Frontmatter: a --- on the very first line opens the block and the next
	// --- closes it. Nothing inside is a heading (YAML comments start with #
	// too). The block only counts when the closing --- actually exists; an
	// unclosed leading --- is plain text, matching the codec's split rule.
	inFrontmatter := false
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "---" {
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) == "---" {
				inFrontmatter = true
				break
			}
		}
	}

	fence := "" // opening fence marker while inside a fenced block

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inFrontmatter {
			out[i] = classified{kind: kindFrontmatter}
			if i > 0 && trimmed == "---" {
				inFrontmatter = false
			}
			continue
		}

		// Fenced code blocks: ``` or ~~~ toggles, closing marker must use
		// the same character as the opening one.
		if marker := fenceMarker(trimmed); marker != "" {
			if fence == "" {
				fence = marker
				out[i] = classified{kind: kindFence}
			} else if marker[0] == fence[0] && len(marker) >= len(fence) {
				fence = ""
				out[i] = classified{kind: kindFence}
			} else {
				out[i] = classified{kind: kindFenced}
			}
			continue
		}
		if fence != "" {
			out[i] = classified{kind: kindFenced}
			continue
		}

		if level, title, ok := headingLine(trimmed); ok {
			out[i] = classified{kind: kindHeading, level: level, title: title}
			continue
		}
		out[i] = classified{kind: kindText}
	}

	return out
}

// fenceMarker returns the leading run of ` or ~ when it is at least three
// characters long, otherwise "".
func fenceMarker(trimmed string) string {
	if len(trimmed) < 3 {
		return ""
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return ""
	}
	return trimmed[:n]
}

// headingLine parses a heading of the form "#... title".
func headingLine(trimmed string) (level int, title string, ok bool) {
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n < 1 || n > 6 || n == len(trimmed) {
		return 0, "", false
	}
	if trimmed[n] != ' ' && trimmed[n] != '\t' {
		return 0, "", false
	}
	title = strings.TrimSpace(trimmed[n:])
	if title == "" {
		return 0, "", false
	}
	return n, title, true
}

// Build produces the ordered heading structure of content. IDs come from
// per-level counters: a heading at level L increments counter L and resets
// all deeper counters, and its ID is the dot-joined counters 1..L.
func Build(content string) []Node {
	lines := strings.Split(content, "\n")
	classes := classify(lines)

	var nodes []Node
	var counters [7]int // index 0 unused

	for i, c := range classes {
		if c.kind != kindHeading {
			continue
		}
		counters[c.level]++
		for j := c.level + 1; j < len(counters); j++ {
			counters[j] = 0
		}
		parts := make([]string, 0, c.level)
		for j := 1; j <= c.level; j++ {
			parts = append(parts, strconv.Itoa(counters[j]))
		}
		nodes = append(nodes, Node{
			ID:        strings.Join(parts, "."),
			Title:     c.title,
			Level:     c.level,
			LineStart: i,
		})
	}

	return nodes
}

// SectionRange locates the node with the given ID and the exclusive end line
// of its section: the line of the next heading with level <= the target's,
// or totalLines when the section runs to the end of the document.
func SectionRange(nodes []Node, id string, totalLines int) (Node, int, bool) {
	for i, n := range nodes {
		if n.ID != id {
			continue
		}
		for _, next := range nodes[i+1:] {
			if next.Level <= n.Level {
				return n, next.LineStart, true
			}
		}
		return n, totalLines, true
	}
	return Node{}, 0, false
}

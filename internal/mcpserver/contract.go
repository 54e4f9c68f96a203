package mcpserver

// DocumentFormatContract describes the canonical document format and the
// section-update workflow that LLM consumers should follow.
const DocumentFormatContract = `# Ansuz Document Format Contract

Every Markdown document stored in Ansuz MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED – used in catalog and search
category: libs                      # REQUIRED – subdirectory the file lives in
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
description: One-line summary       # OPTIONAL – shown in detailed catalog
last_updated: 2025-01-15            # Maintained automatically (YYYY-MM-DD)
---

# Document Title

## First Section

Body text in standard Markdown.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "`---`" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **File paths** are ` + "`{category}/{slug}.md`" + ` with forward slashes; slugs are
   lowercase with underscores.
3. **Headings** use 1-6 ` + "`#`" + ` characters followed by a space. The heading
   hierarchy is the addressing scheme: every heading gets a dot-separated
   section ID (` + "`1`" + `, ` + "`1.2`" + `, ` + "`1.2.1`" + `) derived from its position.
4. **Section IDs are not stable across edits.** Always call ` + "`get_outline`" + `
   immediately before ` + "`update_section`" + `.
5. **Updates replace a whole section**: the heading line plus everything up
   to the next heading of the same or shallower level. Supply the complete
   replacement including the heading.
6. **Appending**: use node_id ` + "`APPEND`" + ` to add content at the end of the
   file without touching existing sections.
7. **Encoding** is UTF-8 with a trailing newline.

## Workflow

1. ` + "`list_catalog`" + ` to find the document (or ` + "`search_documents`" + `).
2. ` + "`get_outline`" + ` to read metadata and section IDs.
3. ` + "`update_section`" + ` with the section ID and its current title.
4. ` + "`view_changes`" + ` to review the resulting diff.

A snapshot of the previous content is captured before every write; nothing
is ever overwritten silently.
`

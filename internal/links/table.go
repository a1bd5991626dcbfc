// Package links maps exported pages to their output paths and rewrites
// intra-tree wiki links in converted Markdown to relative file links.
package links

import (
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/wikimirror/internal/docmodel"
)

// Table maps page ids to output paths relative to the docs dir. It is built
// once per run, after traversal and before any page is rewritten, so every
// page sees the complete mapping.
type Table struct {
	paths map[string]string
}

// BuildTable assigns every page in the set its output path. The root becomes
// index.md; a hierarchy page lives under one directory per ancestor between
// the root and itself, each named by the ancestor's slug; link-discovered
// pages sit flat at the docs root.
func BuildTable(set *docmodel.PageSet, rootID string) *Table {
	t := &Table{paths: make(map[string]string, set.Len())}
	for _, p := range set.Pages() {
		if p.ID == rootID {
			t.paths[p.ID] = "index.md"
			continue
		}
		var segments []string
		if !p.LinkDiscovered {
			segments = ancestorDirs(set, rootID, p)
		}
		segments = append(segments, p.Slug()+"-"+p.ID+".md")
		t.paths[p.ID] = path.Join(segments...)
	}
	return t
}

// ancestorDirs walks the parent chain from the page up to the root and
// returns the slugs of the intermediate pages, outermost first.
func ancestorDirs(set *docmodel.PageSet, rootID string, p *docmodel.Page) []string {
	var dirs []string
	for cur := p; cur.ParentID != "" && cur.ParentID != rootID; {
		parent := set.Get(cur.ParentID)
		if parent == nil {
			break
		}
		dirs = append([]string{parent.Slug()}, dirs...)
		cur = parent
	}
	return dirs
}

// PathFor returns the output path for a page id.
func (t *Table) PathFor(id string) (string, bool) {
	p, ok := t.paths[id]
	return p, ok
}

// Paths returns all assigned paths, sorted, for run summaries.
func (t *Table) Paths() []string {
	out := make([]string, 0, len(t.paths))
	for _, p := range t.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of mapped pages.
func (t *Table) Len() int { return len(t.paths) }

// RelPath computes the relative link from one output path to another, both
// given relative to the docs dir.
func RelPath(from, to string) string {
	fromDir := path.Dir(from)
	if fromDir == "." {
		return to
	}
	fromParts := strings.Split(fromDir, "/")
	toParts := strings.Split(to, "/")

	common := 0
	for common < len(fromParts) && common < len(toParts)-1 && fromParts[common] == toParts[common] {
		common++
	}
	parts := make([]string, 0, len(fromParts)-common+len(toParts)-common)
	for range fromParts[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)
	return strings.Join(parts, "/")
}

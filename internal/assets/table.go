// Package assets localizes embedded media: every wiki-hosted reference is
// downloaded once per unique source URL and rewritten to a relative path under
// the docs tree.
package assets

import (
	"sort"
	"sync"

	"git.home.luguber.info/inful/wikimirror/internal/docmodel"
)

// entry tracks one unique source URL for the run.
type entry struct {
	asset  *docmodel.Asset
	failed bool
}

// Table is the run-scoped asset dedup table, keyed by normalized source URL.
// It is an explicit state object passed into the localizer so concurrent runs
// (and tests) never share state. Safe for concurrent use.
type Table struct {
	mu        sync.Mutex
	byURL     map[string]*entry
	usedNames map[string]map[string]int // pageID -> filename -> count
}

// NewTable returns an empty dedup table.
func NewTable() *Table {
	return &Table{
		byURL:     make(map[string]*entry),
		usedNames: make(map[string]map[string]int),
	}
}

// claim returns the entry for key, creating it with a deterministic local path
// on first sight. The second return reports whether the entry already existed.
func (t *Table) claim(key, pageID, filename string) (*entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.byURL[key]; ok {
		return e, true
	}

	names := t.usedNames[pageID]
	if names == nil {
		names = make(map[string]int)
		t.usedNames[pageID] = names
	}
	local := uniqueName(names, filename)

	e := &entry{asset: &docmodel.Asset{
		SourceURL: key,
		PageID:    pageID,
		LocalPath: "assets/" + pageID + "/" + local,
	}}
	t.byURL[key] = e
	return e, false
}

// markFailed records a download failure; references stay on the remote URL.
func (t *Table) markFailed(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.byURL[key]; ok {
		e.failed = true
	}
}

// Assets returns every successfully downloaded asset, ordered by local path
// for deterministic emission.
func (t *Table) Assets() []*docmodel.Asset {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*docmodel.Asset, 0, len(t.byURL))
	for _, e := range t.byURL {
		if !e.failed {
			out = append(out, e.asset)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalPath < out[j].LocalPath })
	return out
}

// Failed returns the source URLs whose download failed, sorted.
func (t *Table) Failed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for key, e := range t.byURL {
		if e.failed {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of unique source URLs seen.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byURL)
}

// Package docmodel defines the data model shared by the sync pipeline:
// wiki pages, localized assets, and the navigation tree.
package docmodel

// Ancestor identifies one page on the path from the space root to a page.
type Ancestor struct {
	ID    string
	Title string
}

// Page is a single wiki document. Instances are immutable once fetched within a
// run; the pipeline never mutates Body after conversion starts.
type Page struct {
	ID        string
	Title     string
	ParentID  string // empty for the export root
	Ancestors []Ancestor
	Body      string   // raw storage/view HTML as returned by the wiki
	Children  []string // ordered child page ids

	// LinkDiscovered marks pages reached through in-body links rather than the
	// parent/child hierarchy. They are exported but kept out of the main nav tree.
	LinkDiscovered bool
}

// Slug returns the URL-safe filename fragment for the page title.
func (p *Page) Slug() string {
	return Slugify(p.Title)
}

// PageSet is the ordered result of a traversal: every fetched page keyed by id,
// plus the deterministic pre-order in which they were discovered.
type PageSet struct {
	Order []string
	byID  map[string]*Page
}

// NewPageSet returns an empty, usable PageSet.
func NewPageSet() *PageSet {
	return &PageSet{byID: make(map[string]*Page)}
}

// Add appends a page preserving discovery order. Re-adding an id is a no-op.
func (s *PageSet) Add(p *Page) {
	if _, ok := s.byID[p.ID]; ok {
		return
	}
	s.byID[p.ID] = p
	s.Order = append(s.Order, p.ID)
}

// Get returns the page for id, or nil.
func (s *PageSet) Get(id string) *Page {
	return s.byID[id]
}

// Contains reports whether the id is part of the exported set.
func (s *PageSet) Contains(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns the number of pages in the set.
func (s *PageSet) Len() int { return len(s.Order) }

// Pages returns the pages in discovery order.
func (s *PageSet) Pages() []*Page {
	out := make([]*Page, 0, len(s.Order))
	for _, id := range s.Order {
		out = append(out, s.byID[id])
	}
	return out
}

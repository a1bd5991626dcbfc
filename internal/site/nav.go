// Package site turns the synced page set into a static-site source tree:
// writing pages and assets under the docs dir and keeping the generated
// navigation in the site config without clobbering hand-tuned settings.
package site

import (
	"git.home.luguber.info/inful/wikimirror/internal/docmodel"
	"git.home.luguber.info/inful/wikimirror/internal/links"
)

// BuildNav derives the navigation tree from the page hierarchy. The root
// becomes a Home entry; a page with children becomes a section whose first
// item is the page itself; link-discovered pages are grouped into a trailing
// section so they never disturb the hierarchy ordering.
func BuildNav(set *docmodel.PageSet, table *links.Table, rootID string) []*docmodel.NavNode {
	root := set.Get(rootID)
	if root == nil {
		return nil
	}

	nav := []*docmodel.NavNode{{Title: "Home", Path: "index.md"}}
	for _, childID := range root.Children {
		if node := navNode(set, table, childID); node != nil {
			nav = append(nav, node)
		}
	}

	var linked []*docmodel.NavNode
	for _, p := range set.Pages() {
		if !p.LinkDiscovered {
			continue
		}
		if path, ok := table.PathFor(p.ID); ok {
			linked = append(linked, &docmodel.NavNode{Title: p.Title, Path: path})
		}
	}
	if len(linked) > 0 {
		nav = append(nav, &docmodel.NavNode{Title: "Linked pages", Children: linked})
	}
	return nav
}

func navNode(set *docmodel.PageSet, table *links.Table, id string) *docmodel.NavNode {
	page := set.Get(id)
	if page == nil {
		return nil
	}
	path, ok := table.PathFor(id)
	if !ok {
		return nil
	}
	if len(page.Children) == 0 {
		return &docmodel.NavNode{Title: page.Title, Path: path}
	}

	// The section page leads its own section.
	section := &docmodel.NavNode{
		Title:    page.Title,
		Children: []*docmodel.NavNode{{Title: page.Title, Path: path}},
	}
	for _, childID := range page.Children {
		if node := navNode(set, table, childID); node != nil {
			section.Children = append(section.Children, node)
		}
	}
	return section
}

// NavYAML renders the tree in the shape the site generator expects: a list of
// single-key maps, sections holding nested lists.
func NavYAML(nodes []*docmodel.NavNode) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		if len(n.Children) == 0 {
			out = append(out, map[string]any{n.Title: n.Path})
			continue
		}
		out = append(out, map[string]any{n.Title: NavYAML(n.Children)})
	}
	return out
}

package docmodel

// Asset is a binary resource embedded in a page, downloaded once per unique
// source URL and re-homed under the docs tree.
type Asset struct {
	SourceURL string // dedup key: normalized remote URL without query string
	PageID    string // first page that referenced the asset
	LocalPath string // relative to the docs dir, e.g. assets/102/img.png
	Data      []byte
}

// NavNode mirrors the page hierarchy for the site generator's navigation.
type NavNode struct {
	Title    string
	Path     string // page output path relative to the docs dir; empty for pure sections
	Children []*NavNode
}

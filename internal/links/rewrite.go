package links

import (
	"context"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/wikimirror/internal/confluence"
	"git.home.luguber.info/inful/wikimirror/internal/logfields"
	"git.home.luguber.info/inful/wikimirror/internal/markdown"
)

// Resolver turns a short wiki link into a page id, or "" if it cannot.
type Resolver func(ctx context.Context, href string) string

// Rewriter rewrites wiki page links inside converted Markdown. It runs as a
// second pass over the finished Markdown, after the full path table exists.
type Rewriter struct {
	table *Table
	// IsWikiLink gates absolute URLs; relative hrefs always qualify. When nil
	// every href is considered.
	isWikiLink func(href string) bool
	resolve    Resolver
}

// NewRewriter builds a Rewriter over the run's path table. isWikiLink and
// resolve may be nil.
func NewRewriter(table *Table, isWikiLink func(string) bool, resolve Resolver) *Rewriter {
	return &Rewriter{table: table, isWikiLink: isWikiLink, resolve: resolve}
}

// Rewrite replaces destinations that point at exported pages with relative
// file links, preserving anchors, and returns the updated body plus the number
// of rewritten links. Destinations it cannot map are left byte for byte as
// they were, so broken or external links stay visible in the output.
func (r *Rewriter) Rewrite(ctx context.Context, pageID string, body []byte) ([]byte, int, error) {
	from, ok := r.table.PathFor(pageID)
	if !ok {
		return body, 0, nil
	}

	// The CommonMark parser decides what is a link; the span scanner supplies
	// the byte offsets. A span the parser did not see stays untouched.
	known := markdown.Destinations(body)

	var edits []markdown.Edit
	for _, span := range markdown.LinkSpans(body) {
		if _, seen := known[span.Destination]; !seen {
			continue
		}
		target := r.targetPath(ctx, span.Destination)
		if target == "" {
			continue
		}
		_, frag := splitFragment(span.Destination)
		replacement := RelPath(from, target) + frag
		if replacement == span.Destination {
			continue
		}
		edits = append(edits, markdown.Edit{
			Start:       span.Start,
			End:         span.End,
			Replacement: []byte(replacement),
		})
	}
	if len(edits) == 0 {
		return body, 0, nil
	}

	out, err := markdown.ApplyEdits(body, edits)
	if err != nil {
		// Overlapping spans mean the scanner misread the document; keep the
		// original body rather than emit a corrupted page.
		slog.Warn("link rewrite produced conflicting edits, leaving page unchanged",
			logfields.PageID(pageID), logfields.Error(err))
		return body, 0, nil
	}
	return out, len(edits), nil
}

// targetPath maps one destination to an output path, or "" when the
// destination is external, unresolvable, or outside the export set.
func (r *Rewriter) targetPath(ctx context.Context, dest string) string {
	base, _ := splitFragment(dest)
	if base == "" || strings.HasPrefix(base, "mailto:") {
		return ""
	}
	if isAbsolute(base) && r.isWikiLink != nil && !r.isWikiLink(base) {
		return ""
	}

	id := confluence.ExtractPageID(base)
	if id == "" && confluence.LooksLikeShortLink(base) && r.resolve != nil {
		id = r.resolve(ctx, base)
	}
	if id == "" {
		return ""
	}
	path, ok := r.table.PathFor(id)
	if !ok {
		return ""
	}
	return path
}

func isAbsolute(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

func splitFragment(dest string) (string, string) {
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		return dest[:i], dest[i:]
	}
	return dest, ""
}

// Package walker enumerates the exported page tree: a deterministic pre-order
// traversal of the parent/child hierarchy, with optional bounded following of
// in-body links as a separate edge type.
package walker

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/wikimirror/internal/confluence"
	"git.home.luguber.info/inful/wikimirror/internal/docmodel"
	syncerrors "git.home.luguber.info/inful/wikimirror/internal/errors"
	"git.home.luguber.info/inful/wikimirror/internal/logfields"
	"git.home.luguber.info/inful/wikimirror/internal/metrics"
)

// Source is the slice of the wiki client the walker needs.
type Source interface {
	GetPage(ctx context.Context, id string) (*docmodel.Page, error)
	ListChildren(ctx context.Context, id string) ([]*docmodel.Page, error)
	ResolvePageID(ctx context.Context, href string) string
}

// Options bound the traversal.
type Options struct {
	MaxDepth     int  // hierarchy depth bound; 0 = unlimited
	FollowLinks  bool // treat in-body wiki links as additional discovery edges
	MaxLinkDepth int  // depth budget for link-following, counted separately
}

// Skip records a subtree that could not be fetched; the run continues.
type Skip struct {
	PageID   string
	ParentID string
	Reason   string // "notfound" | "network" | "children"
	Err      error
}

// Result is the traversal outcome.
type Result struct {
	Set      *docmodel.PageSet // pages in deterministic pre-order
	Skipped  []Skip
	Warnings []string // cycle and bound notices, for the run summary
}

// Walker drives the traversal.
type Walker struct {
	src      Source
	opts     Options
	recorder metrics.Recorder
}

// New builds a Walker.
func New(src Source, opts Options, recorder metrics.Recorder) *Walker {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Walker{src: src, opts: opts, recorder: recorder}
}

// linkEdge is a pending in-body discovery edge.
type linkEdge struct {
	id    string
	depth int // link-following depth, independent of hierarchy depth
}

// Walk fetches the root and enumerates its subtree. A root fetch failure or a
// fatal error on any descendant (rejected credentials) aborts the walk; other
// descendant failures are recorded as skips. Cycles in the hierarchy are
// broken with a warning instead of failing the run.
func (w *Walker) Walk(ctx context.Context, rootID string) (*Result, error) {
	root, err := w.src.GetPage(ctx, rootID)
	if err != nil {
		// The root is the one page the run cannot do without.
		if syncerrors.IsCategory(err, syncerrors.CategoryNotFound) {
			return nil, syncerrors.Wrap(err, syncerrors.CategoryNotFound, syncerrors.SeverityFatal, "root page unreachable").
				WithContext("page_id", rootID)
		}
		return nil, err
	}

	res := &Result{Set: docmodel.NewPageSet()}
	var links []linkEdge
	onPath := map[string]bool{}

	if err := w.visit(ctx, root, 0, onPath, res, &links); err != nil {
		return nil, err
	}

	if w.opts.FollowLinks {
		if err := w.followLinks(ctx, links, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// visit adds the page and descends through its children depth-first, keeping
// source child order so navigation order is deterministic.
func (w *Walker) visit(ctx context.Context, page *docmodel.Page, depth int, onPath map[string]bool, res *Result, links *[]linkEdge) error {
	res.Set.Add(page)
	onPath[page.ID] = true
	defer delete(onPath, page.ID)

	if w.opts.FollowLinks && w.opts.MaxLinkDepth > 0 {
		for _, id := range w.extractLinkedIDs(ctx, page.Body) {
			*links = append(*links, linkEdge{id: id, depth: 1})
		}
	}

	if w.opts.MaxDepth > 0 && depth >= w.opts.MaxDepth {
		slog.Debug("max depth reached, not descending",
			logfields.PageID(page.ID), logfields.Depth(depth))
		return nil
	}

	children, err := w.src.ListChildren(ctx, page.ID)
	if err != nil {
		// Rejected credentials poison every request after this one; abort
		// instead of degrading the run to partial output.
		if syncerrors.IsFatal(err) {
			return err
		}
		w.skip(res, Skip{PageID: page.ID, ParentID: page.ParentID, Reason: "children", Err: err})
		return nil
	}

	page.Children = page.Children[:0]
	for _, child := range children {
		if onPath[child.ID] {
			warn := "cycle detected: page " + child.ID + " is its own ancestor, skipping edge from " + page.ID
			res.Warnings = append(res.Warnings, warn)
			slog.Warn("cycle detected in page hierarchy",
				logfields.PageID(child.ID), logfields.ParentID(page.ID))
			continue
		}
		if res.Set.Contains(child.ID) {
			// Already exported through another edge; keep the first placement.
			continue
		}
		page.Children = append(page.Children, child.ID)
		child.ParentID = page.ID
		if err := w.visit(ctx, child, depth+1, onPath, res, links); err != nil {
			return err
		}
	}
	return nil
}

// followLinks processes in-body discovery edges breadth-first, bounded by the
// link-depth budget. Link-discovered pages join the export set but not the
// parent/child navigation tree.
func (w *Walker) followLinks(ctx context.Context, queue []linkEdge, res *Result) error {
	for len(queue) > 0 {
		edge := queue[0]
		queue = queue[1:]

		if res.Set.Contains(edge.id) {
			continue
		}
		page, err := w.src.GetPage(ctx, edge.id)
		if err != nil {
			if syncerrors.IsFatal(err) {
				return err
			}
			reason := "network"
			if syncerrors.IsCategory(err, syncerrors.CategoryNotFound) {
				reason = "notfound"
			}
			w.skip(res, Skip{PageID: edge.id, Reason: reason, Err: err})
			continue
		}
		page.LinkDiscovered = true
		page.ParentID = ""
		res.Set.Add(page)
		slog.Info("followed in-body link",
			logfields.PageID(page.ID), logfields.LinkDepth(edge.depth))

		if edge.depth < w.opts.MaxLinkDepth {
			for _, id := range w.extractLinkedIDs(ctx, page.Body) {
				if !res.Set.Contains(id) {
					queue = append(queue, linkEdge{id: id, depth: edge.depth + 1})
				}
			}
		}
	}
	return nil
}

// extractLinkedIDs pulls referenced page ids out of a body's anchors, in
// document order, deduplicated. Short links cost a resolution round-trip.
func (w *Walker) extractLinkedIDs(ctx context.Context, body string) []string {
	if body == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var ids []string
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		id := confluence.ExtractPageID(href)
		if id == "" && confluence.LooksLikeShortLink(href) {
			id = w.src.ResolvePageID(ctx, href)
		}
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	})
	return ids
}

func (w *Walker) skip(res *Result, s Skip) {
	res.Skipped = append(res.Skipped, s)
	w.recorder.IncPageSkipped(s.Reason)
	slog.Warn("skipping subtree",
		logfields.PageID(s.PageID),
		logfields.ParentID(s.ParentID),
		slog.String("reason", s.Reason),
		logfields.Error(s.Err))
}

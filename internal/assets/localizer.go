package assets

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/wikimirror/internal/docmodel"
	syncerrors "git.home.luguber.info/inful/wikimirror/internal/errors"
	"git.home.luguber.info/inful/wikimirror/internal/logfields"
	"git.home.luguber.info/inful/wikimirror/internal/metrics"
)

// Fetcher is the slice of the wiki client the localizer needs.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
	IsWikiAsset(url string) bool
}

// Localizer scans page HTML for wiki-hosted media, downloads each unique
// source once via the shared Table, and rewrites references to relative local
// paths. Downloads for one page run in a bounded worker pool.
type Localizer struct {
	fetcher     Fetcher
	table       *Table
	concurrency int
	recorder    metrics.Recorder
}

// NewLocalizer builds a Localizer around the run's dedup table.
func NewLocalizer(fetcher Fetcher, table *Table, concurrency int, recorder metrics.Recorder) *Localizer {
	if concurrency < 1 {
		concurrency = 1
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Localizer{fetcher: fetcher, table: table, concurrency: concurrency, recorder: recorder}
}

// reference is one attribute in the document pointing at a wiki asset.
type reference struct {
	sel  *goquery.Selection
	attr string
	raw  string // original attribute value
	key  string // normalized dedup key
}

// Localize rewrites wiki media references in the page body to local relative
// paths and returns the rewritten HTML plus the assets this page references.
// pagePath is the page's output path relative to the docs dir; it anchors the
// relative asset links. Individual download failures are logged and leave the
// remote reference in place.
func (l *Localizer) Localize(ctx context.Context, page *docmodel.Page, pagePath, body string) (string, []*docmodel.Asset, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", nil, syncerrors.Wrap(err, syncerrors.CategoryConvert, syncerrors.SeverityWarning, "parse page html").
			WithContext("page_id", page.ID)
	}

	refs := l.collect(doc)

	// Claim table slots sequentially so local paths are deterministic, then
	// download the newly claimed URLs concurrently.
	toFetch := make([]*reference, 0, len(refs))
	for _, ref := range refs {
		if _, seen := l.table.claim(ref.key, page.ID, filenameFor(ref.key)); seen {
			l.recorder.IncAssetDedupHit()
			continue
		}
		toFetch = append(toFetch, ref)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, ref := range toFetch {
		g.Go(func() error {
			data, err := l.fetcher.Download(gctx, ref.raw)
			if err != nil {
				l.table.markFailed(ref.key)
				slog.Warn("asset download failed, keeping remote reference",
					logfields.PageID(page.ID),
					logfields.URL(ref.raw),
					logfields.Error(syncerrors.AssetError(ref.raw, err)))
				return nil // per-asset failures never abort the page
			}
			l.setData(ref.key, data)
			l.recorder.IncAssetDownloaded()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	// Rewrite references whose asset made it into the table.
	var used []*docmodel.Asset
	usedKeys := map[string]bool{}
	for _, ref := range refs {
		asset, ok := l.lookup(ref.key)
		if !ok {
			continue
		}
		ref.sel.SetAttr(ref.attr, relativeTo(pagePath, asset.LocalPath))
		if !usedKeys[ref.key] {
			usedKeys[ref.key] = true
			used = append(used, asset)
		}
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", nil, syncerrors.Wrap(err, syncerrors.CategoryConvert, syncerrors.SeverityWarning, "serialize page html").
			WithContext("page_id", page.ID)
	}
	return out, used, nil
}

// collect finds media references in document order: embedded images and
// attachment download links.
func (l *Localizer) collect(doc *goquery.Document) []*reference {
	var refs []*reference
	add := func(sel *goquery.Selection, attr string) {
		raw, ok := sel.Attr(attr)
		if !ok || raw == "" || !l.fetcher.IsWikiAsset(raw) {
			return
		}
		refs = append(refs, &reference{sel: sel, attr: attr, raw: raw, key: NormalizeKey(raw)})
	}
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) { add(sel, "src") })
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) { add(sel, "href") })
	return refs
}

func (l *Localizer) setData(key string, data []byte) {
	l.table.mu.Lock()
	defer l.table.mu.Unlock()
	if e, ok := l.table.byURL[key]; ok {
		e.asset.Data = data
	}
}

func (l *Localizer) lookup(key string) (*docmodel.Asset, bool) {
	l.table.mu.Lock()
	defer l.table.mu.Unlock()
	e, ok := l.table.byURL[key]
	if !ok || e.failed {
		return nil, false
	}
	return e.asset, true
}

// NormalizeKey strips the query string so cache-busting parameters do not
// defeat deduplication. The remaining URL is the dedup key.
func NormalizeKey(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// filenameFor derives the local file name from the source URL.
func filenameFor(key string) string {
	name := path.Base(key)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" || name == "." || name == "/" {
		return "asset"
	}
	return name
}

// uniqueName disambiguates per-page filename collisions with a numeric suffix
// before the extension: img.png, img-1.png, img-2.png.
func uniqueName(used map[string]int, name string) string {
	if _, taken := used[name]; !taken {
		used[name] = 1
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := stem + "-" + strconv.Itoa(i) + ext
		if _, taken := used[candidate]; !taken {
			used[candidate] = 1
			return candidate
		}
	}
}

// relativeTo computes a slash-separated path from the page's directory to the
// asset path, both relative to the docs dir.
func relativeTo(pagePath, target string) string {
	dir := path.Dir(pagePath)
	if dir == "." {
		return target
	}
	var prefix strings.Builder
	for range strings.Split(dir, "/") {
		prefix.WriteString("../")
	}
	return prefix.String() + target
}

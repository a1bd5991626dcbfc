// Package syncer orchestrates one mirror run: traverse the wiki tree, build
// the path table, then per page localize media, convert to Markdown, rewrite
// intra-tree links, and finally emit the docs tree and regenerate navigation.
package syncer

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/wikimirror/internal/assets"
	"git.home.luguber.info/inful/wikimirror/internal/config"
	"git.home.luguber.info/inful/wikimirror/internal/confluence"
	"git.home.luguber.info/inful/wikimirror/internal/convert"
	syncerrors "git.home.luguber.info/inful/wikimirror/internal/errors"
	"git.home.luguber.info/inful/wikimirror/internal/links"
	"git.home.luguber.info/inful/wikimirror/internal/logfields"
	"git.home.luguber.info/inful/wikimirror/internal/metrics"
	"git.home.luguber.info/inful/wikimirror/internal/site"
	"git.home.luguber.info/inful/wikimirror/internal/state"
	"git.home.luguber.info/inful/wikimirror/internal/walker"
)

// Summary reports what one run did.
type Summary struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     time.Time
	Duration       time.Duration
	Outcome        metrics.RunOutcome
	Pages          int
	Assets         int
	FailedAssets   []string // source URLs whose download failed
	RewrittenLinks int
	DegradedPages  []string // page ids emitted with unconverted macro markup
	Skipped        []walker.Skip
	Warnings       []string
	Requests       int64
}

// Runner wires the pipeline for repeated runs over one configuration.
type Runner struct {
	cfg      *config.Config
	client   *confluence.Client
	recorder metrics.Recorder
	store    *state.Store // optional run history
}

// New builds a Runner. store may be nil when history is not wanted.
func New(cfg *config.Config, client *confluence.Client, recorder metrics.Recorder, store *state.Store) *Runner {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Runner{cfg: cfg, client: client, recorder: recorder, store: store}
}

// Run executes one full sync. It returns an error only for fatal conditions
// (unreachable root, output write failure); per-page and per-asset failures
// are contained and reported in the Summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString(), StartedAt: time.Now()}
	slog.Info("sync starting",
		logfields.RunID(sum.RunID),
		logfields.PageID(r.cfg.RootPageID),
		logfields.URL(r.cfg.BaseURL))

	w := walker.New(r.client, walker.Options{
		MaxDepth:     r.cfg.MaxDepth,
		FollowLinks:  r.cfg.FollowLinks,
		MaxLinkDepth: r.cfg.MaxLinkDepth,
	}, r.recorder)

	res, err := w.Walk(ctx, r.cfg.RootPageID)
	if err != nil {
		return nil, r.finish(ctx, sum, metrics.OutcomeFailed, err)
	}
	sum.Skipped = res.Skipped
	sum.Warnings = res.Warnings

	table := links.BuildTable(res.Set, r.cfg.RootPageID)
	assetTable := assets.NewTable()
	localizer := assets.NewLocalizer(r.client, assetTable, r.cfg.DownloadConcurrency, r.recorder)
	converter := convert.New()
	rewriter := links.NewRewriter(table, r.client.IsWikiURL, r.client.ResolvePageID)

	var rendered []site.RenderedPage
	for _, page := range res.Set.Pages() {
		pagePath, ok := table.PathFor(page.ID)
		if !ok {
			continue
		}

		body := page.Body
		localized, _, err := localizer.Localize(ctx, page, pagePath, body)
		if err != nil {
			// Keep the raw body; references stay remote but the page survives.
			slog.Warn("media localization failed, using raw body",
				logfields.PageID(page.ID), logfields.Error(err))
		} else {
			body = localized
		}

		conv, err := converter.Convert(body)
		if err != nil {
			convErr := syncerrors.ConversionError(page.ID, err)
			slog.Warn("page conversion failed, skipping page",
				logfields.PageID(page.ID),
				logfields.PageTitle(page.Title),
				logfields.Error(convErr))
			r.recorder.IncPageSkipped("convert")
			sum.Skipped = append(sum.Skipped, walker.Skip{
				PageID: page.ID, ParentID: page.ParentID, Reason: "convert", Err: convErr,
			})
			continue
		}
		if conv.Degraded {
			sum.DegradedPages = append(sum.DegradedPages, page.ID)
			slog.Warn("page contains unconverted macros",
				logfields.PageID(page.ID),
				slog.Any("macros", conv.Macros))
		}

		markdown := convert.EnsureTitleHeading(conv.Markdown, page.Title)
		out, n, err := rewriter.Rewrite(ctx, page.ID, []byte(markdown))
		if err != nil {
			out = []byte(markdown)
		}
		sum.RewrittenLinks += n

		rendered = append(rendered, site.RenderedPage{Path: pagePath, Content: out})
		r.recorder.IncPageSynced()
	}

	downloaded := assetTable.Assets()
	sum.Pages = len(rendered)
	sum.Assets = len(downloaded)
	sum.FailedAssets = assetTable.Failed()

	emitter := site.NewEmitter(r.cfg.DocsDir)
	if err := emitter.Emit(rendered, downloaded); err != nil {
		return nil, r.finish(ctx, sum, metrics.OutcomeFailed, err)
	}

	root := res.Set.Get(r.cfg.RootPageID)
	nav := site.BuildNav(res.Set, table, r.cfg.RootPageID)
	mk := &site.MkdocsConfig{Path: r.cfg.MkDocsPath}
	if err := mk.Update(root.Title, docsDirFor(r.cfg), site.NavYAML(nav)); err != nil {
		return nil, r.finish(ctx, sum, metrics.OutcomeFailed, err)
	}

	outcome := metrics.OutcomeSuccess
	if len(sum.Skipped) > 0 || len(sum.FailedAssets) > 0 {
		outcome = metrics.OutcomePartial
	}
	return sum, r.finish(ctx, sum, outcome, nil)
}

// finish closes out the summary, records metrics and history, and passes the
// fatal error (if any) back through.
func (r *Runner) finish(ctx context.Context, sum *Summary, outcome metrics.RunOutcome, fatal error) error {
	sum.FinishedAt = time.Now()
	sum.Duration = sum.FinishedAt.Sub(sum.StartedAt)
	sum.Outcome = outcome
	sum.Requests = r.client.RequestCount()

	r.recorder.ObserveRunDuration(sum.Duration)
	r.recorder.IncRunOutcome(outcome)

	detail := ""
	if fatal != nil {
		detail = fatal.Error()
	}
	if r.store != nil {
		rec := state.Run{
			ID:         sum.RunID,
			StartedAt:  sum.StartedAt,
			FinishedAt: sum.FinishedAt,
			Outcome:    string(outcome),
			Pages:      sum.Pages,
			Assets:     sum.Assets,
			Skipped:    len(sum.Skipped),
			Requests:   sum.Requests,
			Detail:     detail,
		}
		if err := r.store.Record(ctx, rec); err != nil {
			slog.Warn("recording run history failed", logfields.RunID(sum.RunID), logfields.Error(err))
		}
	}

	slog.Info("sync finished",
		logfields.RunID(sum.RunID),
		logfields.Outcome(string(outcome)),
		logfields.DurationMS(float64(sum.Duration.Milliseconds())),
		slog.Int("pages", sum.Pages),
		slog.Int("assets", sum.Assets),
		slog.Int("skipped", len(sum.Skipped)))
	return fatal
}

// docsDirFor computes the docs_dir value relative to the mkdocs.yml location,
// the form the site generator expects.
func docsDirFor(cfg *config.Config) string {
	rel, err := filepath.Rel(filepath.Dir(cfg.MkDocsPath), cfg.DocsDir)
	if err != nil {
		return cfg.DocsDir
	}
	return filepath.ToSlash(rel)
}

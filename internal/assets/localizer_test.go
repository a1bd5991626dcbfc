package assets

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wikimirror/internal/docmodel"
	"git.home.luguber.info/inful/wikimirror/internal/metrics"
)

// fakeFetcher serves canned bytes and records download counts per URL.
type fakeFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	fail  map[string]bool
	calls map[string]int
	total atomic.Int64
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{data: map[string][]byte{}, fail: map[string]bool{}, calls: map[string]int{}}
}

func (f *fakeFetcher) Download(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[NormalizeKey(url)]++
	f.total.Add(1)
	if f.fail[NormalizeKey(url)] {
		return nil, errors.New("boom")
	}
	if d, ok := f.data[NormalizeKey(url)]; ok {
		return d, nil
	}
	return []byte("bytes"), nil
}

func (f *fakeFetcher) IsWikiAsset(url string) bool {
	return strings.Contains(url, "/download/")
}

func localizer(f *fakeFetcher, table *Table) *Localizer {
	return NewLocalizer(f, table, 2, metrics.NoopRecorder{})
}

func page(id string) *docmodel.Page { return &docmodel.Page{ID: id, Title: "P" + id} }

func TestLocalizeRewritesAndDownloadsOnce(t *testing.T) {
	f := newFakeFetcher()
	table := NewTable()
	l := localizer(f, table)

	body := `<p><img src="/download/attachments/102/img.png?version=2"/></p>`

	out, used, err := l.Localize(context.Background(), page("102"), "guide-102.md", body)
	require.NoError(t, err)
	require.Len(t, used, 1)
	assert.Equal(t, "assets/102/img.png", used[0].LocalPath)
	assert.Contains(t, out, `src="assets/102/img.png"`)
	assert.Equal(t, 1, f.calls["/download/attachments/102/img.png"])
}

func TestDedupAcrossPages(t *testing.T) {
	f := newFakeFetcher()
	table := NewTable()
	l := localizer(f, table)
	ctx := context.Background()

	body := `<img src="/download/attachments/9/shared.png">`

	_, usedA, err := l.Localize(ctx, page("101"), "a-101.md", body)
	require.NoError(t, err)
	_, usedB, err := l.Localize(ctx, page("102"), "b-102.md", body)
	require.NoError(t, err)

	// One download, one local path, owned by the first-visited page.
	assert.Equal(t, 1, f.calls["/download/attachments/9/shared.png"])
	require.Len(t, usedA, 1)
	require.Len(t, usedB, 1)
	assert.Equal(t, usedA[0].LocalPath, usedB[0].LocalPath)
	assert.Equal(t, "assets/101/shared.png", usedA[0].LocalPath)
	assert.Equal(t, 1, len(table.Assets()))
}

func TestQueryStringDoesNotDefeatDedup(t *testing.T) {
	f := newFakeFetcher()
	table := NewTable()
	l := localizer(f, table)
	ctx := context.Background()

	body := `<img src="/download/attachments/9/x.png?v=1"><img src="/download/attachments/9/x.png?v=2">`
	_, used, err := l.Localize(ctx, page("7"), "p-7.md", body)
	require.NoError(t, err)
	assert.Len(t, used, 1)
	assert.Equal(t, 1, f.calls["/download/attachments/9/x.png"])
}

func TestFilenameCollisionGetsSuffix(t *testing.T) {
	f := newFakeFetcher()
	table := NewTable()
	l := localizer(f, table)

	body := `<img src="/download/attachments/1/img.png"><img src="/download/attachments/2/img.png">`
	_, used, err := l.Localize(context.Background(), page("7"), "p-7.md", body)
	require.NoError(t, err)
	require.Len(t, used, 2)
	assert.Equal(t, "assets/7/img.png", used[0].LocalPath)
	assert.Equal(t, "assets/7/img-1.png", used[1].LocalPath)
}

func TestDownloadFailureLeavesRemoteReference(t *testing.T) {
	f := newFakeFetcher()
	f.fail["/download/attachments/1/broken.png"] = true
	table := NewTable()
	l := localizer(f, table)

	body := `<img src="/download/attachments/1/broken.png"><img src="/download/attachments/1/ok.png">`
	out, used, err := l.Localize(context.Background(), page("5"), "p-5.md", body)
	require.NoError(t, err)

	// The failed reference keeps the original URL; its sibling still localizes.
	assert.Contains(t, out, `src="/download/attachments/1/broken.png"`)
	assert.Contains(t, out, `src="assets/5/ok.png"`)
	require.Len(t, used, 1)
	assert.Equal(t, []string{"/download/attachments/1/broken.png"}, table.Failed())
}

func TestNestedPagePathGetsRelativePrefix(t *testing.T) {
	f := newFakeFetcher()
	table := NewTable()
	l := localizer(f, table)

	body := `<img src="/download/attachments/3/deep.png">`
	out, _, err := l.Localize(context.Background(), page("3"), "guides/setup/deep-3.md", body)
	require.NoError(t, err)
	assert.Contains(t, out, `src="../../assets/3/deep.png"`)
}

func TestAttachmentLinksAreLocalized(t *testing.T) {
	f := newFakeFetcher()
	table := NewTable()
	l := localizer(f, table)

	body := `<a href="/download/attachments/4/spec.pdf">spec</a><a href="https://github.com/x">ext</a>`
	out, used, err := l.Localize(context.Background(), page("4"), "p-4.md", body)
	require.NoError(t, err)
	require.Len(t, used, 1)
	assert.Contains(t, out, `href="assets/4/spec.pdf"`)
	assert.Contains(t, out, `href="https://github.com/x"`)
}

func TestExternalImagesUntouched(t *testing.T) {
	f := newFakeFetcher()
	table := NewTable()
	l := localizer(f, table)

	body := `<img src="https://cdn.example.com/logo.png">`
	out, used, err := l.Localize(context.Background(), page("4"), "p-4.md", body)
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Contains(t, out, `src="https://cdn.example.com/logo.png"`)
	assert.Equal(t, int64(0), f.total.Load())
}

package links

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wikimirror/internal/docmodel"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	set := buildSet(
		&docmodel.Page{ID: "100", Title: "Root"},
		&docmodel.Page{ID: "101", Title: "Guide", ParentID: "100"},
		&docmodel.Page{ID: "102", Title: "Setup", ParentID: "101"},
	)
	return BuildTable(set, "100")
}

func TestRewritePointsAtExportedPage(t *testing.T) {
	r := NewRewriter(testTable(t), nil, nil)

	body := []byte("See [the guide](https://wiki.example.com/wiki/spaces/D/pages/101/Guide).")
	out, n, err := r.Rewrite(context.Background(), "100", body)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "See [the guide](guide-101.md).", string(out))
}

func TestRewriteUsesRelativePaths(t *testing.T) {
	r := NewRewriter(testTable(t), nil, nil)

	// From the nested setup page back up to the root and over to its parent.
	body := []byte("[home](/wiki/pages/100) and [up](/wiki/pages/101)")
	out, n, err := r.Rewrite(context.Background(), "102", body)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "[home](../index.md) and [up](../guide-101.md)", string(out))
}

func TestRewritePreservesAnchor(t *testing.T) {
	r := NewRewriter(testTable(t), nil, nil)

	body := []byte("[install](/wiki/pages/102#install)")
	out, n, err := r.Rewrite(context.Background(), "100", body)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "[install](guide/setup-102.md#install)", string(out))
}

func TestRewriteLeavesUnknownPagesAlone(t *testing.T) {
	r := NewRewriter(testTable(t), nil, nil)

	body := []byte("[gone](/wiki/pages/999) and [ext](https://github.com/x)")
	out, n, err := r.Rewrite(context.Background(), "100", body)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, string(body), string(out))
}

func TestRewriteRespectsHostGate(t *testing.T) {
	gate := func(href string) bool { return strings.Contains(href, "wiki.example.com") }
	r := NewRewriter(testTable(t), gate, nil)

	body := []byte("[other](https://other.example.com/wiki/pages/101)")
	out, n, err := r.Rewrite(context.Background(), "100", body)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, string(body), string(out))
}

func TestRewriteResolvesShortLinks(t *testing.T) {
	resolve := func(_ context.Context, href string) string {
		if href == "/x/AbCd" {
			return "101"
		}
		return ""
	}
	r := NewRewriter(testTable(t), nil, resolve)

	body := []byte("[tiny](/x/AbCd)")
	out, n, err := r.Rewrite(context.Background(), "100", body)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "[tiny](guide-101.md)", string(out))
}

func TestRewriteSkipsLinksInCode(t *testing.T) {
	r := NewRewriter(testTable(t), nil, nil)

	body := []byte("```\n[a](/wiki/pages/101)\n```\n[b](/wiki/pages/101)\n")
	out, n, err := r.Rewrite(context.Background(), "100", body)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, string(out), "```\n[a](/wiki/pages/101)\n```")
	assert.Contains(t, string(out), "[b](guide-101.md)")
}

func TestRewriteUnmappedSourcePageIsNoop(t *testing.T) {
	r := NewRewriter(testTable(t), nil, nil)

	body := []byte("[x](/wiki/pages/101)")
	out, n, err := r.Rewrite(context.Background(), "999", body)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, string(body), string(out))
}

func TestRewriteMultipleLinksOneLine(t *testing.T) {
	r := NewRewriter(testTable(t), nil, nil)

	body := []byte("[a](/wiki/pages/101), [b](/wiki/pages/102), [c](/wiki/pages/101)")
	out, n, err := r.Rewrite(context.Background(), "100", body)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "[a](guide-101.md), [b](guide/setup-102.md), [c](guide-101.md)", string(out))
}

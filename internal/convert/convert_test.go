package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertStructuralElements(t *testing.T) {
	c := New()
	res, err := c.Convert(`
		<h1>Title</h1>
		<p>Some <strong>bold</strong> and <em>italic</em> text.</p>
		<h2>Section</h2>
		<ul><li>one</li><li>two</li></ul>
		<ol><li>first</li><li>second</li></ol>
		<pre><code>fmt.Println("hi")</code></pre>
		<table><thead><tr><th>A</th><th>B</th></tr></thead>
		<tbody><tr><td>1</td><td>2</td></tr></tbody></table>
	`)
	require.NoError(t, err)
	assert.False(t, res.Degraded)

	md := res.Markdown
	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "**bold**")
	assert.Contains(t, md, "*italic*")
	assert.Contains(t, md, "## Section")
	assert.Contains(t, md, "- one")
	assert.Contains(t, md, "1. first")
	assert.Contains(t, md, `fmt.Println("hi")`)
	assert.Contains(t, md, "| A | B |")
}

func TestConvertIsDeterministic(t *testing.T) {
	c := New()
	in := `<h1>T</h1><p>body <a href="/wiki/pages/2">link</a></p>`
	first, err := c.Convert(in)
	require.NoError(t, err)
	second, err := c.Convert(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConvertStripsStyleAttributes(t *testing.T) {
	c := New()
	res, err := c.Convert(`<p style="color: red">styled</p>`)
	require.NoError(t, err)
	assert.NotContains(t, res.Markdown, "color")
	assert.Contains(t, res.Markdown, "styled")
}

func TestConvertDemotesExtraH1(t *testing.T) {
	c := New()
	res, err := c.Convert(`<h1>First</h1><p>x</p><h1>Second</h1>`)
	require.NoError(t, err)
	assert.Contains(t, res.Markdown, "# First")
	assert.Contains(t, res.Markdown, "## Second")
	assert.NotContains(t, res.Markdown, "\n# Second")
}

func TestConvertMacroDegradesToRaw(t *testing.T) {
	c := New()
	res, err := c.Convert(`
		<p>before</p>
		<div data-macro-name="jira" class="confluence-jira-macro">PROJ-123</div>
		<p>after</p>
	`)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, []string{"jira"}, res.Macros)
	// The macro markup survives in raw embedded form.
	assert.Contains(t, res.Markdown, `data-macro-name="jira"`)
	assert.Contains(t, res.Markdown, "before")
	assert.Contains(t, res.Markdown, "after")
}

func TestConvertMacroNamesSortedAndDeduped(t *testing.T) {
	c := New()
	res, err := c.Convert(`
		<div data-macro-name="toc"></div>
		<div data-macro-name="jira">X</div>
		<div data-macro-name="toc"></div>
	`)
	require.NoError(t, err)
	assert.Equal(t, []string{"jira", "toc"}, res.Macros)
}

func TestEnsureTitleHeading(t *testing.T) {
	// Existing H1 is normalized to the wiki title.
	got := EnsureTitleHeading("# Old Heading\n\nbody\n", "Wiki Title")
	assert.True(t, strings.HasPrefix(got, "# Wiki Title\n"))
	assert.Contains(t, got, "body")

	// Missing H1 is synthesized.
	got = EnsureTitleHeading("just text\n", "Wiki Title")
	assert.True(t, strings.HasPrefix(got, "# Wiki Title\n\n"))

	// A later heading does not count as the leading H1.
	got = EnsureTitleHeading("intro\n\n# Later\n", "Wiki Title")
	assert.True(t, strings.HasPrefix(got, "# Wiki Title\n\n"))
	assert.Contains(t, got, "## Later")
}

func TestEnsureTitleHeadingKeepsSingleH1(t *testing.T) {
	// A buried H1 is demoted, not duplicated.
	got := EnsureTitleHeading("intro\n\n# Buried\n\nmore\n", "Wiki Title")
	h1s := 0
	for _, line := range strings.Split(got, "\n") {
		if strings.HasPrefix(line, "# ") {
			h1s++
		}
	}
	assert.Equal(t, 1, h1s)
	assert.True(t, strings.HasPrefix(got, "# Wiki Title\n\n"))
	assert.Contains(t, got, "## Buried")

	// An H1 inside a code fence is left alone.
	got = EnsureTitleHeading("```\n# not a heading\n```\n", "Wiki Title")
	assert.True(t, strings.HasPrefix(got, "# Wiki Title\n\n"))
	assert.Contains(t, got, "# not a heading")
}

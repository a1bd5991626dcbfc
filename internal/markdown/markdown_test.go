package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkSpansInlineLink(t *testing.T) {
	src := []byte("See [the guide](https://wiki.example.com/pages/101) for more.")
	spans := LinkSpans(src)
	require.Len(t, spans, 1)
	assert.Equal(t, SpanInline, spans[0].Kind)
	assert.Equal(t, "https://wiki.example.com/pages/101", spans[0].Destination)
	assert.Equal(t, spans[0].Destination, string(src[spans[0].Start:spans[0].End]))
}

func TestLinkSpansImage(t *testing.T) {
	src := []byte("![diagram](assets/101/diagram.png)")
	spans := LinkSpans(src)
	require.Len(t, spans, 1)
	assert.Equal(t, SpanImage, spans[0].Kind)
	assert.Equal(t, "assets/101/diagram.png", spans[0].Destination)
}

func TestLinkSpansSkipsCode(t *testing.T) {
	src := []byte("```\n[a](http://x/1)\n```\n" +
		"    [b](http://x/2)\n" +
		"use `[c](http://x/3)` inline\n" +
		"[real](http://x/4)\n")
	spans := LinkSpans(src)
	require.Len(t, spans, 1)
	assert.Equal(t, "http://x/4", spans[0].Destination)
}

func TestLinkSpansTitleAndAngleBrackets(t *testing.T) {
	src := []byte(`[a](http://x/1 "title") and [b](<http://x/2>)`)
	spans := LinkSpans(src)
	require.Len(t, spans, 2)
	assert.Equal(t, "http://x/1", spans[0].Destination)
	assert.Equal(t, "http://x/2", spans[1].Destination)
}

func TestLinkSpansReferenceDefinition(t *testing.T) {
	src := []byte("[guide]: http://x/guide\n[^1]: a footnote\n")
	spans := LinkSpans(src)
	require.Len(t, spans, 1)
	assert.Equal(t, SpanReferenceDef, spans[0].Kind)
	assert.Equal(t, "http://x/guide", spans[0].Destination)
}

func TestLinkSpansMultiplePerLine(t *testing.T) {
	src := []byte("[a](x.md) then [b](y.md)")
	spans := LinkSpans(src)
	require.Len(t, spans, 2)
	assert.Equal(t, "x.md", spans[0].Destination)
	assert.Equal(t, "y.md", spans[1].Destination)
	assert.Less(t, spans[0].End, spans[1].Start)
}

func TestDestinationsRecognizesParserLinks(t *testing.T) {
	src := []byte("[a](http://x/1) and ![i](img.png)\n\n[ref]: http://x/ref\n")
	dests := Destinations(src)
	assert.Contains(t, dests, "http://x/1")
	assert.Contains(t, dests, "img.png")
	assert.Contains(t, dests, "http://x/ref")
}

func TestDestinationsIgnoresCodeBlocks(t *testing.T) {
	dests := Destinations([]byte("```\n[a](http://x/1)\n```\n"))
	assert.NotContains(t, dests, "http://x/1")
}

func TestApplyEditsSingle(t *testing.T) {
	out, err := ApplyEdits([]byte("[a](old.md) tail"), []Edit{{Start: 4, End: 10, Replacement: []byte("new.md")}})
	require.NoError(t, err)
	assert.Equal(t, "[a](new.md) tail", string(out))
}

func TestApplyEditsMultiplePreservesOffsets(t *testing.T) {
	src := []byte("[a](one) mid [b](three)")
	out, err := ApplyEdits(src, []Edit{
		{Start: 4, End: 7, Replacement: []byte("1")},
		{Start: 17, End: 22, Replacement: []byte("3")},
	})
	require.NoError(t, err)
	assert.Equal(t, "[a](1) mid [b](3)", string(out))
}

func TestApplyEditsCRLFPreserved(t *testing.T) {
	src := []byte("line one\r\n[a](x)\r\n")
	out, err := ApplyEdits(src, []Edit{{Start: 14, End: 15, Replacement: []byte("y.md")}})
	require.NoError(t, err)
	assert.Equal(t, "line one\r\n[a](y.md)\r\n", string(out))
}

func TestApplyEditsRejectsOverlap(t *testing.T) {
	_, err := ApplyEdits([]byte("abcdef"), []Edit{
		{Start: 0, End: 4, Replacement: []byte("x")},
		{Start: 2, End: 5, Replacement: []byte("y")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestApplyEditsRejectsOutOfBounds(t *testing.T) {
	_, err := ApplyEdits([]byte("abc"), []Edit{{Start: 1, End: 9}})
	require.Error(t, err)
}

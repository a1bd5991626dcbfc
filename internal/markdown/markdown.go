// Package markdown provides analysis helpers for converted page bodies:
// locating link destinations as byte ranges and applying minimal-diff edits
// without re-rendering the document.
package markdown

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Destinations parses the body and returns the set of link destinations the
// CommonMark parser recognizes: inline links, images, autolinks, and reference
// definitions. Rewrites are restricted to destinations in this set, so text
// that merely looks like a link inside code stays untouched.
func Destinations(body []byte) map[string]struct{} {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	out := make(map[string]struct{})
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			out[string(node.URL(body))] = struct{}{}
		case *gmast.Image:
			out[string(node.Destination)] = struct{}{}
		case *gmast.Link:
			out[string(node.Destination)] = struct{}{}
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not the AST.
	for _, ref := range ctx.References() {
		out[string(ref.Destination())] = struct{}{}
	}
	return out
}

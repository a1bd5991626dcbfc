// Package convert turns wiki HTML page bodies into Markdown.
//
// Conversion is deterministic and pure: the same body always yields the same
// Markdown. Structural elements map one-to-one; wiki macros the converter does
// not understand are kept in their raw embedded form and reported on the
// result instead of failing the page.
package convert

import (
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	syncerrors "git.home.luguber.info/inful/wikimirror/internal/errors"
)

// Result is the tagged outcome of a conversion. Degraded marks that at least
// one construct fell back to raw passthrough; tests and the run summary use it
// to tell the lossy path from the structured one.
type Result struct {
	Markdown string
	Degraded bool
	Macros   []string // macro names kept raw, sorted, deduplicated
}

// Converter converts wiki HTML to Markdown.
type Converter struct{}

// New returns a ready Converter.
func New() *Converter { return &Converter{} }

// Convert cleans the HTML body and converts it to GitHub-flavored Markdown.
func (c *Converter) Convert(body string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Result{}, syncerrors.Wrap(err, syncerrors.CategoryConvert, syncerrors.SeverityWarning, "parse page html")
	}

	cleanDocument(doc)

	cleaned, err := doc.Find("body").Html()
	if err != nil {
		return Result{}, syncerrors.Wrap(err, syncerrors.CategoryConvert, syncerrors.SeverityWarning, "serialize cleaned html")
	}

	macroSet := map[string]bool{}
	conv := newMarkdownConverter(macroSet)

	out, err := conv.ConvertString(cleaned)
	if err != nil {
		return Result{}, syncerrors.Wrap(err, syncerrors.CategoryConvert, syncerrors.SeverityWarning, "convert html to markdown")
	}

	res := Result{Markdown: strings.TrimSpace(out) + "\n"}
	if len(macroSet) > 0 {
		res.Degraded = true
		for name := range macroSet {
			res.Macros = append(res.Macros, name)
		}
		sort.Strings(res.Macros)
	}
	return res, nil
}

// newMarkdownConverter builds a GitHub-flavored converter with a raw
// passthrough rule for macro markup. The converter is per-call because the
// macro rule records into the call's result set.
func newMarkdownConverter(macroSet map[string]bool) *md.Converter {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())

	conv.AddRules(md.Rule{
		Filter: []string{"div", "span", "table"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			name, ok := selec.Attr("data-macro-name")
			if !ok {
				return nil // not a macro, fall through to default handling
			}
			macroSet[name] = true
			raw, err := goquery.OuterHtml(selec)
			if err != nil {
				return &content
			}
			return md.String("\n\n" + raw + "\n\n")
		},
	})
	return conv
}

// cleanDocument normalizes the rendered wiki HTML before conversion:
// presentation-only style attributes are dropped and duplicate top-level
// headings are demoted so each page keeps a single H1.
func cleanDocument(doc *goquery.Document) {
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		sel.RemoveAttr("style")
	})

	doc.Find("h1").Each(func(i int, sel *goquery.Selection) {
		if i == 0 {
			return
		}
		for _, node := range sel.Nodes {
			node.Data = "h2"
		}
	})
}

// EnsureTitleHeading forces the page's first H1 to be its wiki title,
// synthesizing one when the body has none. An H1 buried later in the body is
// demoted so the title stays the only top-level heading.
func EnsureTitleHeading(markdown, title string) string {
	lines := strings.Split(markdown, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(trimmed, "# ") {
			continue
		}
		if blankBefore(lines[:i]) {
			lines[i] = "# " + title
			return strings.Join(lines, "\n")
		}
		lines[i] = strings.Replace(line, "# ", "## ", 1)
		break
	}
	return "# " + title + "\n\n" + strings.Join(lines, "\n")
}

func blankBefore(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

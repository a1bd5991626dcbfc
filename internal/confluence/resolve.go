package confluence

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var (
	pagesPathRe   = regexp.MustCompile(`/pages/(\d+)`)
	pageIDParamRe = regexp.MustCompile(`[?&]pageId=(\d+)`)
	contentPathRe = regexp.MustCompile(`/content/(\d+)`)
)

// ExtractPageID pulls a page id out of the URL shapes the wiki uses for page
// links: /spaces/X/pages/<id>/..., ?pageId=<id>, and /rest/api/content/<id>.
// Returns "" when the URL carries no id.
func ExtractPageID(href string) string {
	for _, re := range []*regexp.Regexp{pagesPathRe, pageIDParamRe, contentPathRe} {
		if m := re.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	return ""
}

// LooksLikeShortLink reports whether the href is a wiki short/display link that
// needs a round-trip to resolve (tiny links, space display URLs).
func LooksLikeShortLink(href string) bool {
	return strings.Contains(href, "/x/") || strings.Contains(href, "/display/") ||
		strings.Contains(href, "pageId=")
}

// ResolvePageID maps an arbitrary in-body href to a page id, following
// redirects for short links. Results (including failures) are cached for the
// run. Returns "" when the link is external or cannot be resolved.
func (c *Client) ResolvePageID(ctx context.Context, href string) string {
	if href == "" {
		return ""
	}

	c.mu.Lock()
	if id, ok := c.resolveCache[href]; ok {
		c.mu.Unlock()
		return id
	}
	c.mu.Unlock()

	id := c.resolveUncached(ctx, href)

	c.mu.Lock()
	c.resolveCache[href] = id
	c.mu.Unlock()
	return id
}

func (c *Client) resolveUncached(ctx context.Context, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Host != "" && u.Host != c.host {
		return "" // external link, out of scope
	}
	if id := ExtractPageID(href); id != "" {
		return id
	}
	if !LooksLikeShortLink(href) {
		return ""
	}

	// Short links resolve through a redirect to the canonical page URL.
	resp, err := c.do(ctx, http.MethodGet, c.AbsoluteURL(href), nil)
	if err != nil {
		return ""
	}
	final := resp.Request.URL.String()
	drain(resp)
	return ExtractPageID(final)
}

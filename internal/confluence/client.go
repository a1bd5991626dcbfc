// Package confluence implements the REST client for the remote wiki:
// page metadata and body fetches, paginated child listings, attachment
// downloads, and short-link resolution.
package confluence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/wikimirror/internal/config"
	syncerrors "git.home.luguber.info/inful/wikimirror/internal/errors"
	"git.home.luguber.info/inful/wikimirror/internal/logfields"
	"git.home.luguber.info/inful/wikimirror/internal/metrics"
	"git.home.luguber.info/inful/wikimirror/internal/retry"
)

const (
	userAgent = "wikimirror/1.0"
	pageLimit = 100

	// Upper bound we are willing to honor from a Retry-After header.
	maxRetryAfter = 60 * time.Second
)

// Client talks to the wiki REST API. It is safe for concurrent use.
type Client struct {
	baseURL string // scheme://host[/wiki], no trailing slash
	apiURL  string // baseURL + /rest/api
	host    string
	email   string
	token   string

	httpc    *http.Client
	policy   retry.Policy
	recorder metrics.Recorder

	requests atomic.Int64

	mu           sync.Mutex
	resolveCache map[string]string // href -> page id, "" when unresolvable
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// New builds a Client from config.
func New(cfg *config.Config, opts ...Option) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{
		baseURL:      base,
		apiURL:       base + "/rest/api",
		email:        cfg.Email,
		token:        cfg.APIToken,
		httpc:        &http.Client{Timeout: cfg.HTTPTimeout},
		policy:       cfg.Retry,
		recorder:     metrics.NoopRecorder{},
		resolveCache: make(map[string]string),
	}
	if u, err := url.Parse(base); err == nil {
		c.host = u.Host
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RequestCount returns the number of HTTP requests issued so far in this run.
func (c *Client) RequestCount() int64 { return c.requests.Load() }

// AbsoluteURL resolves a server-relative reference against the wiki base URL.
func (c *Client) AbsoluteURL(ref string) string {
	if strings.HasPrefix(ref, "/") {
		return c.baseURL + ref
	}
	return ref
}

// IsWikiURL reports whether the URL points at the configured wiki host
// (relative references count as wiki URLs).
func (c *Client) IsWikiURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Host == "" {
		return u.Scheme == ""
	}
	return u.Host == c.host
}

// IsWikiAsset reports whether the URL is a downloadable wiki attachment or
// embedded media reference.
func (c *Client) IsWikiAsset(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Host != "" && u.Host != c.host {
		return false
	}
	return strings.Contains(u.Path, "/download/")
}

// doOnce issues a single HTTP attempt and classifies the outcome into the
// error taxonomy. The retry loop lives in do().
func (c *Client) doOnce(ctx context.Context, method, rawURL string, params url.Values) (*http.Response, error) {
	u := rawURL
	if params != nil {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, syncerrors.Wrap(err, syncerrors.CategoryInternal, syncerrors.SeverityError, "build request")
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.requests.Add(1)
	c.recorder.IncAPIRequest(method)

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Timeouts and connection failures are transient by definition here.
		return nil, syncerrors.TransientError(rawURL, err)
	}

	switch {
	case resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		drain(resp)
		return nil, syncerrors.AuthError(fmt.Errorf("%s returned %s", rawURL, resp.Status))
	case resp.StatusCode == http.StatusNotFound:
		drain(resp)
		return nil, syncerrors.New(syncerrors.CategoryNotFound, syncerrors.SeverityWarning, "resource not found").
			WithContext("url", rawURL)
	case resp.StatusCode == http.StatusTooManyRequests:
		after := retryAfter(resp)
		drain(resp)
		// Honor the server's pacing request before handing control back to the
		// retry loop; the wait does not count against the backoff schedule.
		if err := sleepCtx(ctx, after); err != nil {
			return nil, err
		}
		return nil, syncerrors.TransientError(rawURL, fmt.Errorf("rate limited: %s", resp.Status))
	case resp.StatusCode >= 500:
		drain(resp)
		return nil, syncerrors.TransientError(rawURL, fmt.Errorf("server error: %s", resp.Status))
	default:
		drain(resp)
		return nil, syncerrors.New(syncerrors.CategoryNetwork, syncerrors.SeverityError, "unexpected status").
			WithContext("url", rawURL).
			WithContext("status", resp.Status)
	}
}

// do wraps doOnce in the configured retry policy.
func (c *Client) do(ctx context.Context, method, rawURL string, params url.Values) (*http.Response, error) {
	var resp *http.Response
	err := retry.Do(ctx, c.policy, rawURL, func(ctx context.Context) error {
		var err error
		resp, err = c.doOnce(ctx, method, rawURL, params)
		return err
	}, func(attempt int, cause error) {
		c.recorder.IncRetry(method)
		slog.Warn("request failed, retrying",
			logfields.URL(rawURL),
			logfields.Attempt(attempt),
			logfields.Error(cause))
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Download fetches raw bytes, resolving server-relative URLs against the base URL.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, c.AbsoluteURL(rawURL), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, syncerrors.TransientError(rawURL, err)
	}
	return data, nil
}

// retryAfter parses a Retry-After header, accepting both the delta-seconds
// and the HTTP-date form.
func retryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return min(time.Duration(secs)*time.Second, maxRetryAfter)
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return min(d, maxRetryAfter)
		}
	}
	return time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

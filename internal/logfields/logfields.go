package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPageID     = "page_id"
	KeyPageTitle  = "page_title"
	KeyParentID   = "parent_id"
	KeyDepth      = "depth"
	KeyLinkDepth  = "link_depth"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func PageID(id string) slog.Attr      { return slog.String(KeyPageID, id) }
func PageTitle(t string) slog.Attr    { return slog.String(KeyPageTitle, t) }
func ParentID(id string) slog.Attr    { return slog.String(KeyParentID, id) }
func Depth(d int) slog.Attr           { return slog.Int(KeyDepth, d) }
func LinkDepth(d int) slog.Attr       { return slog.Int(KeyLinkDepth, d) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

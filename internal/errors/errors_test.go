package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	e := New(CategoryAuth, SeverityFatal, "wiki authentication failed")
	want := "auth (fatal): wiki authentication failed"
	if e.Error() != want {
		t.Fatalf("expected %q got %q", want, e.Error())
	}

	cause := errors.New("401 Unauthorized")
	wrapped := Wrap(cause, CategoryAuth, SeverityFatal, "wiki authentication failed")
	want = "auth (fatal): wiki authentication failed: 401 Unauthorized"
	if wrapped.Error() != want {
		t.Fatalf("expected %q got %q", want, wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	e := WrapRetryable(cause, CategoryNetwork, SeverityError, "transient request failure")
	if !errors.Is(e, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
}

func TestClassificationThroughWrapping(t *testing.T) {
	inner := NotFoundError("12345")
	outer := fmt.Errorf("walk subtree: %w", inner)

	if !IsCategory(outer, CategoryNotFound) {
		t.Fatal("expected notfound category through fmt.Errorf wrapping")
	}
	if IsCategory(outer, CategoryAuth) {
		t.Fatal("did not expect auth category")
	}
	if GetCategory(outer) != CategoryNotFound {
		t.Fatalf("expected notfound, got %s", GetCategory(outer))
	}
}

func TestRetryableFlag(t *testing.T) {
	transient := TransientError("https://wiki/rest/api/content/1", errors.New("503"))
	if !IsRetryable(transient) {
		t.Fatal("transient errors must be retryable")
	}
	if IsRetryable(NotFoundError("1")) {
		t.Fatal("notfound must not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatal("plain errors must not be retryable")
	}
}

func TestFatalSeverity(t *testing.T) {
	if !IsFatal(AuthError(errors.New("403"))) {
		t.Fatal("auth errors are fatal")
	}
	if IsFatal(AssetError("https://x/img.png", errors.New("timeout"))) {
		t.Fatal("asset errors are recoverable")
	}
}

func TestWithContext(t *testing.T) {
	e := NotFoundError("42").WithContext("parent", "7")
	if e.Context["page_id"] != "42" || e.Context["parent"] != "7" {
		t.Fatalf("unexpected context: %v", e.Context)
	}
}

func TestGetCategoryFallback(t *testing.T) {
	if GetCategory(errors.New("plain")) != CategoryInternal {
		t.Fatal("non-SyncError should map to internal")
	}
}

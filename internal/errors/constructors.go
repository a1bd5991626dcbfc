package errors

// Convenience functions for common error patterns

// Config errors

func ConfigRequired(field string) *SyncError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *SyncError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Remote wiki errors

func AuthError(cause error) *SyncError {
	return Wrap(cause, CategoryAuth, SeverityFatal, "wiki authentication failed")
}

func NotFoundError(pageID string) *SyncError {
	return New(CategoryNotFound, SeverityWarning, "page not found").
		WithContext("page_id", pageID)
}

func TransientError(url string, cause error) *SyncError {
	return WrapRetryable(cause, CategoryNetwork, SeverityError, "transient request failure").
		WithContext("url", url)
}

func RetriesExhausted(url string, attempts int, cause error) *SyncError {
	return Wrap(cause, CategoryNetwork, SeverityError, "retries exhausted").
		WithContext("url", url).
		WithContext("attempts", attempts)
}

// Content processing errors

func ConversionError(pageID string, cause error) *SyncError {
	return Wrap(cause, CategoryConvert, SeverityWarning, "content conversion failed").
		WithContext("page_id", pageID)
}

func AssetError(url string, cause error) *SyncError {
	return Wrap(cause, CategoryAsset, SeverityWarning, "asset download failed").
		WithContext("url", url)
}

func EmitError(path string, cause error) *SyncError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "output write failed").
		WithContext("path", path)
}

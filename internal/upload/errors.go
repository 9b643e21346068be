package upload

import "errors"

var (
	// ErrNotConfigured indicates no upload endpoint has been set.
	ErrNotConfigured = errors.New("upload endpoint not configured (set DFTLOG_UPLOAD_URL)")

	// ErrUnavailable indicates the upload endpoint is unreachable.
	ErrUnavailable = errors.New("upload endpoint unavailable")

	// ErrTimeout indicates the upload exceeded the configured timeout.
	ErrTimeout = errors.New("upload timed out")

	// ErrRejected indicates the endpoint answered but did not accept the batch.
	ErrRejected = errors.New("upload rejected")
)

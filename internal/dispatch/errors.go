package dispatch

import "errors"

var (
	// ErrNetworkUnavailable marks a sync attempt skipped because the remote
	// is unreachable. Queued entries are retained.
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrRemoteWriteFailed wraps a failed per-family write.
	ErrRemoteWriteFailed = errors.New("remote write failed")
)

package types

import (
	"context"
	"errors"
	"net"
)

// Fetch error taxonomy. Sources return errors wrapping one of these
// sentinels; the fetch coordinator routes on the kind rather than the
// concrete transport failure.
var (
	// ErrSourceUnavailable means a source's availability gate said no
	// (agent not reachable, missing session token).
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrTimeout means the source exceeded its budget.
	ErrTimeout = errors.New("source timed out")

	// ErrTransport covers network and HTTP-level failures.
	ErrTransport = errors.New("transport error")

	// ErrParse covers malformed payloads.
	ErrParse = errors.New("malformed payload")

	// ErrCancelled means the fetch was superseded by a newer request.
	// It is not a true failure and never reaches failure accounting.
	ErrCancelled = errors.New("fetch cancelled")
)

// ErrorKind is the label used in logs and metrics for a fetch error.
type ErrorKind string

const (
	KindUnavailable ErrorKind = "unavailable"
	KindTimeout     ErrorKind = "timeout"
	KindTransport   ErrorKind = "transport"
	KindParse       ErrorKind = "parse"
	KindCancelled   ErrorKind = "cancelled"
	KindUnknown     ErrorKind = "unknown"
)

// ClassifyError maps an arbitrary fetch error onto the taxonomy.
// Context cancellation and deadline errors from the standard library
// are folded in so callers only ever route on the sentinels.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrSourceUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrTransport):
		return KindTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindTransport
	}
	return KindUnknown
}

// IsCancelled reports whether an error is a superseded-fetch signal.
func IsCancelled(err error) bool {
	return ClassifyError(err) == KindCancelled
}

// Package nss defines the identity-resolution contract shared by the
// network and cache-file resolvers.
//
// The contract mirrors the host name-service dispatcher: every lookup
// receives a caller-supplied fixed-size buffer and returns a four-valued
// Status. Variable-length record fields are packed into the caller buffer;
// a buffer that is too small yields StatusTryAgain so the caller can retry
// with a larger one. Internal components raise richer named errors which
// the resolvers collapse to a Status at the entry point.
package nss

import (
	"errors"

	"github.com/marmos91/cloudnss/pkg/buffer"
)

// Status is the four-valued result contract consumed by the host dispatcher.
type Status int

const (
	// StatusSuccess means the record was fully packed into the caller buffer.
	StatusSuccess Status = iota

	// StatusNotFound covers absent keys, network failures treated as absent,
	// malformed directory responses, and exhausted enumerations.
	StatusNotFound

	// StatusTryAgain means the caller-supplied buffer or array was too small,
	// or a transient resource shortage occurred; the caller should retry.
	StatusTryAgain

	// StatusUnavailable means a local resource (such as the cache file)
	// could not be acquired.
	StatusUnavailable
)

// String returns the status name for logging and CLI output.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not-found"
	case StatusTryAgain:
		return "try-again"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Named error conditions raised by the inner components. They carry the
// errno semantics of the host contract: the resolvers map them to a Status
// and callers can still distinguish the underlying reason with errors.Is.
var (
	// ErrNotFound reports an absent entry (ENOENT).
	ErrNotFound = errors.New("entry not found")

	// ErrInsufficientSpace reports that the caller-supplied buffer or array
	// cannot hold the record (ERANGE). Retry with more space. This is the
	// same condition pkg/buffer raises from Reserve.
	ErrInsufficientSpace = buffer.ErrInsufficientSpace

	// ErrMalformedResponse reports a directory response that returned
	// status 200 but could not be parsed (EINVAL). Operator-visible via the
	// diagnostic log; callers only see not-found.
	ErrMalformedResponse = errors.New("malformed directory response")

	// ErrTransient reports a transient resource shortage, such as a failed
	// array reallocation (EAGAIN). Retry later.
	ErrTransient = errors.New("transient resource failure")
)

// StatusFor collapses a named error into the host status contract.
// A nil error is StatusSuccess. ErrInsufficientSpace and ErrTransient map
// to StatusTryAgain; everything else is indistinguishable from absence.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrInsufficientSpace), errors.Is(err, ErrTransient):
		return StatusTryAgain
	default:
		return StatusNotFound
	}
}

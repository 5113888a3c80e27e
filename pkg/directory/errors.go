package directory

import (
	"fmt"

	"github.com/marmos91/cloudnss/pkg/nss"
)

// RequestError describes a directory request that did not yield a usable
// body: a transport failure, a non-200 status, or an empty response.
//
// It unwraps to nss.ErrNotFound because the host contract makes all of
// these indistinguishable from an absent entry.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("directory request %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("directory request %s: status %d", e.URL, e.StatusCode)
}

// Unwrap folds every request failure into the not-found classification.
func (e *RequestError) Unwrap() error {
	return nss.ErrNotFound
}

package docstore

import (
	"errors"
	"fmt"
)

// ErrMissingIdentifier means the store accepted a create but did not say where the
// document went.
var ErrMissingIdentifier = errors.New("docstore: response carried no document name")

// TransportError is a request that never produced an HTTP response: connection
// failures, timeouts and cancellation.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("docstore: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is a response with status 400 or above. Body is kept verbatim.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("docstore: remote returned HTTP %d: %s", e.Status, e.Body)
}

// IsStatus reports whether err is an HTTPStatusError with the given status.
func IsStatus(err error, status int) bool {
	var se *HTTPStatusError
	return errors.As(err, &se) && se.Status == status
}

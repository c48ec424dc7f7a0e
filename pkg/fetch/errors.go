package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInternalAbort is the cancel cause of the signal the fetcher attaches
// to a request when its timeout fires.
var ErrInternalAbort = errors.New("request aborted by fetch timeout")

// TimeoutError is returned when a request does not settle within its
// timeout.
type TimeoutError struct {
	Method  string
	URL     string
	Timeout time.Duration
}

var _ interface{ Timeout() bool } = (*TimeoutError)(nil)

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s timed out after %dms", e.Method, e.URL, e.Timeout.Milliseconds())
}

// Timeout reports true, matching net.Error.
func (e *TimeoutError) Timeout() bool {
	return true
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// isAbort reports a cancellation. The fetcher's own timeout never gets
// here: it settles on the timer before the aborted call returns.
func isAbort(err error) bool {
	return errors.Is(err, context.Canceled)
}

package vcs

import (
	"errors"
	"fmt"
)

// ErrQueryFailed matches every QueryError via errors.Is.
var ErrQueryFailed = errors.New("query failed")

// ReasonTimeout is the QueryError reason used when a query exceeds its deadline.
const ReasonTimeout = "timeout"

// QueryError reports a failed or malformed backend query.
type QueryError struct {
	Op     string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: query failed: %s", e.Op, e.Reason)
}

// Is makes errors.Is(err, ErrQueryFailed) true for any QueryError.
func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailed
}

// IsTimeout reports whether err is a QueryError caused by a deadline.
func IsTimeout(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Reason == ReasonTimeout
}

func queryErrorf(op, format string, args ...any) *QueryError {
	return &QueryError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

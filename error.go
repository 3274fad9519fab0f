package rigsync

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrReadTimeout    = errors.New("read timeout")
	ErrMalformedReply = errors.New("malformed reply")
	ErrOutOfRange     = errors.New("frequency out of range")
	ErrInvariant      = errors.New("reply invariant violated")
	ErrNotConfirmed   = errors.New("frequency change not confirmed")
	ErrClosed         = errors.New("controller closed")
	ErrDroppedEvent   = errors.New("subscriber channel full")
)

type TimeoutError struct {
	Timeout time.Duration
	Op      string
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s timeout (%dms)", e.Op, e.Timeout.Milliseconds())
	}
	return fmt.Sprintf("%s timeout (%dms): %v", e.Op, e.Timeout.Milliseconds(), e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// OutOfRangeError reports a frequency the wire format of a controller cannot encode.
type OutOfRangeError struct {
	Controller string
	Frequency  Frequency
	Max        Frequency
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: %d Hz out of range, must be below %d Hz", e.Controller, e.Frequency, e.Max)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

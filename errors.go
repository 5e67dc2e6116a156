package quotedprintable

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by writes to an [Encoder] after Close.
var ErrClosed = errors.New("quotedprintable: encoder is closed")

var errReaderNil = errors.New("quotedprintable: reader is nil")

// InvalidOctetError reports an escape sequence that is not '=' followed by
// two hex digits. Truncated is set when the input ended before both digits
// were available; the missing bytes are zero.
type InvalidOctetError struct {
	Octet     [2]byte
	Truncated bool
}

func (e *InvalidOctetError) Error() string {
	if e.Truncated {
		return fmt.Sprintf("quotedprintable: truncated octet %q", e.Octet[:])
	}
	return fmt.Sprintf("quotedprintable: invalid octet %q", e.Octet[:])
}

// StreamError wraps a failure of the in-memory streams used by [Codec].
type StreamError struct {
	Op  string
	Err error
}

func (e *StreamError) Error() string {
	return "quotedprintable: " + e.Op + ": " + e.Err.Error()
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

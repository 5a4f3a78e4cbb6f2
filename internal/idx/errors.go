package idx

import (
	"errors"
	"fmt"
)

// Decode failure kinds. Every error returned by Decode wraps exactly one of
// these and can be matched with errors.Is.
var (
	ErrTruncatedHeader = errors.New("idx: truncated header")
	ErrBadMagic        = errors.New("idx: reserved header bytes must be zero")
	ErrUnknownType     = errors.New("idx: unknown element type")
	ErrSizeMismatch    = errors.New("idx: payload size does not match dimensions")
)

// DecodeError provides detailed information about a decode failure.
type DecodeError struct {
	Kind error // One of the Err* sentinels above

	Offset int64  // Byte offset where the problem was detected
	Value  uint64 // Offending value (reserved bytes or type tag)

	Want int // Expected count (header bytes or elements)
	Got  int // Actual count (header bytes or elements)

	PayloadBytes int // Payload length in bytes (size mismatch only)
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	switch e.Kind {
	case ErrTruncatedHeader:
		return fmt.Sprintf("%v: need %d bytes, found %d", e.Kind, e.Want, e.Got)
	case ErrBadMagic:
		return fmt.Sprintf("%v: found 0x%04x", e.Kind, e.Value)
	case ErrUnknownType:
		return fmt.Sprintf("%v: 0x%02x at offset %d", e.Kind, e.Value, e.Offset)
	case ErrSizeMismatch:
		if e.Want < 0 {
			return fmt.Sprintf("%v: no dimensions or dimension product overflows, found %d items (%d payload bytes)", e.Kind, e.Got, e.PayloadBytes)
		}
		return fmt.Sprintf("%v: expected %d items, found %d (%d payload bytes)", e.Kind, e.Want, e.Got, e.PayloadBytes)
	default:
		return fmt.Sprintf("%v", e.Kind)
	}
}

// Unwrap returns the failure kind.
func (e *DecodeError) Unwrap() error {
	return e.Kind
}

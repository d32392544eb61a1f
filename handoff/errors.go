package handoff

import (
	"errors"
	"fmt"
)

var (
	// ErrBadMagic is returned when a frame does not start with the frame magic.
	ErrBadMagic = errors.New("handoff: bad frame magic")
	// ErrVersion is returned for frames written by an unknown format version.
	ErrVersion = errors.New("handoff: unsupported frame version")
	// ErrChecksum is returned when the frame body does not match its checksum.
	ErrChecksum = errors.New("handoff: checksum mismatch")
	// ErrUnknownCodec is returned when the frame names a codec that is not built in.
	ErrUnknownCodec = errors.New("handoff: unknown codec")
	// ErrUnknownCompression is returned for an unknown compression type.
	ErrUnknownCompression = errors.New("handoff: unknown compression")
	// ErrCorrupt is returned when the frame body is truncated or inconsistent.
	ErrCorrupt = errors.New("handoff: corrupt frame")
	// ErrFrameTooLarge is returned when a frame exceeds the controller budget.
	ErrFrameTooLarge = errors.New("handoff: frame exceeds buffer budget")
	// ErrClosed is returned by operations on a closed queue.
	ErrClosed = errors.New("handoff: queue closed")
	// ErrUnsupportedFormat is returned for row types whose layout cannot be rebuilt.
	ErrUnsupportedFormat = errors.New("handoff: unsupported row format")
	// ErrLabelMismatch is returned when a resolved label's row type does not
	// match the schema carried by the frame.
	ErrLabelMismatch = errors.New("handoff: label row type mismatch")
)

// LabelError reports a failure tied to one label of a frame.
type LabelError struct {
	Label string
	Err   error
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("handoff: label %q: %v", e.Label, e.Err)
}

func (e *LabelError) Unwrap() error { return e.Err }

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

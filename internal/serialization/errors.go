package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidHeader      = errors.New("invalid header")
	ErrTruncated          = errors.New("file truncated")
	ErrTooManyEntries     = errors.New("too many entries in file")
	ErrInvalidName        = errors.New("invalid entry name")
	ErrOutOfBounds        = errors.New("entry extends beyond data section")
	ErrMissingParam       = errors.New("parameter missing from checkpoint")
)

// ValidationError provides detailed information about a rejected header.
type ValidationError struct {
	Entry   string // Entry name, if one is involved
	Details string
	Err     error // one of the sentinels above
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("%v: entry %q: %s", e.Err, e.Entry, e.Details)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Details)
}

// Unwrap returns the sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

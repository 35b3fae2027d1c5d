package serialization

import (
	"fmt"
	"strings"
)

// validateHeader checks entry names and offsets against a data section of
// dataSize bytes. Entries must tile the data section exactly: every offset
// is a distinct multiple of ValueSize and together they cover every value.
func validateHeader(h *Header, dataSize int64) error {
	if h.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: header says %d", ErrUnsupportedVersion, h.FormatVersion)
	}

	entries := h.entries()
	if len(entries) > MaxEntries {
		return &ValidationError{Err: ErrTooManyEntries, Details: fmt.Sprintf("%d > %d", len(entries), MaxEntries)}
	}
	if want := int64(len(entries)) * ValueSize; dataSize != want {
		return &ValidationError{Err: ErrOutOfBounds, Details: fmt.Sprintf("data section is %d bytes, header describes %d", dataSize, want)}
	}

	if err := validateNames(h.Params); err != nil {
		return err
	}
	if h.Optimizer != nil {
		if err := validateNames(h.Optimizer.State); err != nil {
			return err
		}
	}

	seen := make(map[int64]string, len(entries))
	for _, e := range entries {
		if e.Offset < 0 || e.Offset%ValueSize != 0 || e.Offset+ValueSize > dataSize {
			return &ValidationError{Entry: e.Name, Err: ErrOutOfBounds, Details: fmt.Sprintf("offset %d", e.Offset)}
		}
		if other, ok := seen[e.Offset]; ok {
			return &ValidationError{Entry: e.Name, Err: ErrOutOfBounds, Details: fmt.Sprintf("offset %d already used by %q", e.Offset, other)}
		}
		seen[e.Offset] = e.Name
	}
	return nil
}

// validateNames checks one namespace: non-empty, bounded, printable, unique.
func validateNames(entries []EntryMeta) error {
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if err := validateName(e.Name); err != nil {
			return err
		}
		if _, dup := names[e.Name]; dup {
			return &ValidationError{Entry: e.Name, Err: ErrInvalidName, Details: "duplicate name"}
		}
		names[e.Name] = struct{}{}
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Err: ErrInvalidName, Details: "empty name"}
	case len(name) > MaxNameLength:
		return &ValidationError{Entry: name[:32] + "...", Err: ErrInvalidName, Details: fmt.Sprintf("longer than %d bytes", MaxNameLength)}
	case strings.ContainsFunc(name, func(r rune) bool { return r < 0x20 || r == 0x7f }):
		return &ValidationError{Entry: name, Err: ErrInvalidName, Details: "contains control characters"}
	}
	return nil
}

package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Read decodes a checkpoint from r, verifying its checksum and header.
func Read(r io.Reader) (*Checkpoint, error) {
	var fixed [FixedHeaderSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, truncated(err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, fixed[0:4])
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	flags := binary.LittleEndian.Uint32(fixed[8:12])
	size := binary.LittleEndian.Uint64(fixed[12:20])
	if size > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, size)
	}

	headerJSON := make([]byte, size)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, truncated(err)
	}

	rest, err := io.ReadAll(io.LimitReader(r, MaxEntries*ValueSize+ChecksumSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if len(rest) < ChecksumSize {
		return nil, fmt.Errorf("%w: missing checksum", ErrTruncated)
	}
	data, stored := rest[:len(rest)-ChecksumSize], rest[len(rest)-ChecksumSize:]

	hash := sha256.New()
	hash.Write(fixed[:])
	hash.Write(headerJSON)
	hash.Write(data)
	if !bytes.Equal(hash.Sum(nil), stored) {
		return nil, ErrChecksumMismatch
	}

	var h Header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if err := validateHeader(&h, int64(len(data))); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if want := h.flags(); flags != want {
		return nil, &ValidationError{Err: ErrInvalidHeader, Details: fmt.Sprintf("flags %#x do not match header (want %#x)", flags, want)}
	}

	c := &Checkpoint{
		Params:    readEntries(h.Params, data),
		Step:      h.Step,
		Loss:      math.NaN(),
		Metadata:  h.Metadata,
		CreatedAt: h.CreatedAt,
	}
	if h.Loss != nil {
		c.Loss = *h.Loss
	}
	if h.Optimizer != nil {
		c.Optimizer = &OptimizerState{
			Type:  h.Optimizer.Type,
			LR:    h.Optimizer.LR,
			State: readEntries(h.Optimizer.State, data),
		}
	}
	return c, nil
}

// Load reads the checkpoint file at path.
func Load(path string) (*Checkpoint, error) {
	//nolint:gosec // G304: path is chosen by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return c, nil
}

func readEntries(entries []EntryMeta, data []byte) map[string]float64 {
	out := make(map[string]float64, len(entries))
	for _, e := range entries {
		out[e.Name] = math.Float64frombits(binary.LittleEndian.Uint64(data[e.Offset:]))
	}
	return out
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return err
}

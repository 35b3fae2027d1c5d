package serialization

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// WriterVersion is recorded in every header.
const WriterVersion = "0.1.0"

// Write encodes c to w.
func Write(w io.Writer, c *Checkpoint) error {
	header, values := c.layout()
	if err := validateHeader(&header, int64(len(values))*ValueSize); err != nil {
		return err
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerJSON))
	}

	hash := sha256.New()
	bw := bufio.NewWriter(io.MultiWriter(w, hash))

	var fixed [FixedHeaderSize]byte
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], header.flags())
	binary.LittleEndian.PutUint64(fixed[12:20], uint64(len(headerJSON)))
	if _, err := bw.Write(fixed[:]); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var buf [ValueSize]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if _, err := w.Write(hash.Sum(nil)); err != nil {
		return fmt.Errorf("failed to write checksum: %w", err)
	}
	return nil
}

// Save writes c to path. The file is written under a temporary name in the
// same directory and renamed into place, so path never holds a partial file.
func Save(path string, c *Checkpoint) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := Write(tmp, c); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// layout builds the header and the data section values in matching order.
func (c *Checkpoint) layout() (Header, []float64) {
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	h := Header{
		FormatVersion: FormatVersion,
		Version:       WriterVersion,
		CreatedAt:     created,
		Step:          c.Step,
		Loss:          lossPtr(c.Loss),
		Metadata:      c.Metadata,
	}

	var values []float64
	h.Params, values = appendEntries(nil, values, c.Params)
	if c.Optimizer != nil {
		h.Optimizer = &OptimizerMeta{Type: c.Optimizer.Type, LR: c.Optimizer.LR}
		h.Optimizer.State, values = appendEntries(nil, values, c.Optimizer.State)
		if h.Optimizer.State == nil {
			h.Optimizer.State = []EntryMeta{}
		}
	}
	if h.Params == nil {
		h.Params = []EntryMeta{}
	}
	return h, values
}

// appendEntries appends m's values to values in name order and returns the
// matching entries.
func appendEntries(entries []EntryMeta, values []float64, m map[string]float64) ([]EntryMeta, []float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		entries = append(entries, EntryMeta{Name: name, Offset: int64(len(values)) * ValueSize})
		values = append(values, m[name])
	}
	return entries, values
}

package serialization

import (
	"math"
	"time"
)

// Format constants.
const (
	MagicBytes      = "SGRD"
	FormatVersion   = 1
	FixedHeaderSize = 4 + 4 + 4 + 8 // magic, version, flags, header size
	ChecksumSize    = 32            // SHA-256
	ValueSize       = 8             // float64

	MaxHeaderSize = 16 << 20 // 16MB
	MaxEntries    = 1 << 20
	MaxNameLength = 256
)

// Flags stored in the fixed header.
const (
	FlagHasOptimizer uint32 = 1 << 0
	FlagHasMetadata  uint32 = 1 << 1
)

// Header is the JSON header of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Version       string            `json:"scalargrad_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Step          int64             `json:"step"`
	Loss          *float64          `json:"loss,omitempty"` // absent when not finite
	Params        []EntryMeta       `json:"params"`
	Optimizer     *OptimizerMeta    `json:"optimizer,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// EntryMeta locates one named value in the data section.
type EntryMeta struct {
	Name   string `json:"name"`
	Offset int64  `json:"offset"`
}

// OptimizerMeta describes saved optimizer state.
type OptimizerMeta struct {
	Type  string      `json:"type"`
	LR    float64     `json:"lr"`
	State []EntryMeta `json:"state"`
}

// entries returns every entry in data-section order.
func (h *Header) entries() []EntryMeta {
	out := append([]EntryMeta(nil), h.Params...)
	if h.Optimizer != nil {
		out = append(out, h.Optimizer.State...)
	}
	return out
}

func (h *Header) flags() uint32 {
	var f uint32
	if h.Optimizer != nil {
		f |= FlagHasOptimizer
	}
	if len(h.Metadata) > 0 {
		f |= FlagHasMetadata
	}
	return f
}

func lossPtr(loss float64) *float64 {
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return nil
	}
	return &loss
}

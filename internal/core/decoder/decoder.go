// Package decoder implements L2 frame decoding.
package decoder

import (
	"sync/atomic"

	"firestige.xyz/ethframe/internal/core"
)

// Decoder decodes raw frames into structured format.
type Decoder interface {
	Decode(raw core.RawFrame) (core.DecodedFrame, error)
}

// Config controls StandardDecoder behaviour.
type Config struct {
	// CopyPayload detaches the payload from the raw frame buffer.
	// Required when the source reuses its read buffer between frames.
	CopyPayload bool
}

// StandardDecoder is the default Decoder. It is safe for concurrent use.
type StandardDecoder struct {
	config Config
	index  atomic.Uint64
}

// NewStandardDecoder creates a new decoder.
func NewStandardDecoder(cfg Config) *StandardDecoder {
	return &StandardDecoder{config: cfg}
}

// Decode decodes a raw frame. Every call consumes a stream index, failed or not.
func (d *StandardDecoder) Decode(raw core.RawFrame) (core.DecodedFrame, error) {
	idx := d.index.Add(1)

	hdr, err := DecodeEthernet(raw.Data)
	if err != nil {
		return core.DecodedFrame{}, err
	}

	if d.config.CopyPayload && len(hdr.Payload) > 0 {
		hdr.Payload = append([]byte(nil), hdr.Payload...)
	}

	origLen := raw.OrigLen
	if origLen == 0 {
		origLen = uint32(len(raw.Data))
	}

	return core.DecodedFrame{
		Index:     idx,
		Timestamp: raw.Timestamp,
		Header:    hdr,
		OrigLen:   origLen,
	}, nil
}

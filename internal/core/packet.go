// Package core defines core data structures with zero external dependencies.
package core

import "time"

// RawFrame is a frame as read from a source. Data may alias a source buffer.
type RawFrame struct {
	Data       []byte    // Raw frame bytes, starting at the destination MAC
	Timestamp  time.Time // Capture timestamp, zero for textual input
	CaptureLen uint32    // Captured length
	OrigLen    uint32    // Original length on the wire
}

// DecodedFrame is the result of decoding one RawFrame.
type DecodedFrame struct {
	Index     uint64 // 1-based position in the decode stream
	Timestamp time.Time
	Header    EthernetHeader
	OrigLen   uint32
}

// Package decoder implements Ethernet header decoding.
package decoder

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/ethframe/internal/core"
)

const (
	// Minimum header lengths per tag layout
	ethernetHeaderLen  = 14 // dst(6) + src(6) + ethertype(2)
	singleTagHeaderLen = 18 // + tpid(2) + tci(2)
	doubleTagHeaderLen = 22 // + stag(4) + ctag(4)

	tagLen      = 4
	outerTagOff = 12
	innerTagOff = outerTagOff + tagLen
)

// DecodeEthernet decodes an Ethernet frame header (including up to two VLAN tags).
// The returned Payload aliases data.
func DecodeEthernet(data []byte) (core.EthernetHeader, error) {
	if len(data) < ethernetHeaderLen {
		return core.EthernetHeader{}, truncated(len(data), ethernetHeaderLen)
	}

	var dst, src [6]byte
	copy(dst[:], data[0:6])
	copy(src[:], data[6:12])

	etherType := binary.BigEndian.Uint16(data[12:14])

	switch etherType {
	case core.TPID8021Q:
		if len(data) < singleTagHeaderLen {
			return core.EthernetHeader{}, truncated(len(data), singleTagHeaderLen)
		}
		tag := readTag(data[outerTagOff : outerTagOff+tagLen])
		etherType = binary.BigEndian.Uint16(data[16:18])
		return core.NewSingleTagged(dst, src, tag, etherType, data[singleTagHeaderLen:]), nil

	case core.TPID8021AD, core.TPIDQinQ:
		if len(data) < doubleTagHeaderLen {
			return core.EthernetHeader{}, truncated(len(data), doubleTagHeaderLen)
		}
		stag := readTag(data[outerTagOff : outerTagOff+tagLen])
		// Inner TPID is taken as-is, whatever value sits there.
		ctag := readTag(data[innerTagOff : innerTagOff+tagLen])
		etherType = binary.BigEndian.Uint16(data[20:22])
		return core.NewDoubleTagged(dst, src, stag, ctag, etherType, data[doubleTagHeaderLen:]), nil
	}

	return core.NewUntagged(dst, src, etherType, data[ethernetHeaderLen:]), nil
}

// readTag decodes a 4-byte TPID+TCI pair.
func readTag(b []byte) core.Tag {
	return core.Tag{
		TPID: binary.BigEndian.Uint16(b[0:2]),
		TCI:  core.DecodeTCI(binary.BigEndian.Uint16(b[2:4])),
	}
}

func truncated(have, need int) error {
	return fmt.Errorf("%w: have %d bytes, need at least %d", core.ErrTruncatedFrame, have, need)
}

// Package core defines core types with zero external dependencies.
package core

// Tag protocol identifiers recognised at the outer tag position.
// Reference: IEEE 802.1Q / 802.1ad.
const (
	TPID8021Q  uint16 = 0x8100
	TPID8021AD uint16 = 0x88a8
	TPIDQinQ   uint16 = 0x9100
)

// Common EtherType values, used for display only.
const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeARP  uint16 = 0x0806
	EtherTypeIPv6 uint16 = 0x86dd
	EtherTypeLLDP uint16 = 0x88cc
)

// TCI is the decoded 16-bit Tag Control Information of a VLAN tag.
type TCI struct {
	PCP uint8  // priority code point, 0-7
	DEI uint8  // drop eligible indicator, 0-1
	VID uint16 // VLAN identifier, 0-4095
}

// DecodeTCI splits a raw TCI value into its fields.
func DecodeTCI(v uint16) TCI {
	return TCI{
		PCP: uint8((v >> 13) & 0x7),
		DEI: uint8((v >> 11) & 0x1),
		VID: v & 0xfff,
	}
}

// Tag is a single VLAN tag layer.
type Tag struct {
	TPID uint16
	TCI  TCI
}

// Tagging describes which tag layers a frame carries.
type Tagging uint8

const (
	TaggingNone Tagging = iota
	TaggingSingle
	TaggingDouble
)

func (t Tagging) String() string {
	switch t {
	case TaggingNone:
		return "untagged"
	case TaggingSingle:
		return "single"
	case TaggingDouble:
		return "double"
	default:
		return "unknown"
	}
}

// EthernetHeader represents a decoded L2 Ethernet frame header.
//
// Tags can only be attached through NewSingleTagged or NewDoubleTagged, so a
// header carries either no tag, a single 802.1Q tag, or an outer service tag
// plus an inner customer tag.
type EthernetHeader struct {
	Destination [6]byte
	Source      [6]byte
	EtherType   uint16 // final EtherType after all tags are stripped
	Payload     []byte // bytes following the final EtherType

	tagging Tagging
	outer   Tag // tag, or stag for double-tagged frames
	inner   Tag // ctag
}

// NewUntagged builds a header without VLAN tags.
func NewUntagged(dst, src [6]byte, etherType uint16, payload []byte) EthernetHeader {
	return EthernetHeader{
		Destination: dst,
		Source:      src,
		EtherType:   etherType,
		Payload:     payload,
	}
}

// NewSingleTagged builds a header carrying one 802.1Q tag.
func NewSingleTagged(dst, src [6]byte, tag Tag, etherType uint16, payload []byte) EthernetHeader {
	h := NewUntagged(dst, src, etherType, payload)
	h.tagging = TaggingSingle
	h.outer = tag
	return h
}

// NewDoubleTagged builds a header carrying a service tag and a customer tag.
func NewDoubleTagged(dst, src [6]byte, stag, ctag Tag, etherType uint16, payload []byte) EthernetHeader {
	h := NewUntagged(dst, src, etherType, payload)
	h.tagging = TaggingDouble
	h.outer = stag
	h.inner = ctag
	return h
}

// Tagging reports the tag layout of the header.
func (h EthernetHeader) Tagging() Tagging {
	return h.tagging
}

// Tag returns the single 802.1Q tag, if present.
func (h EthernetHeader) Tag() (Tag, bool) {
	if h.tagging != TaggingSingle {
		return Tag{}, false
	}
	return h.outer, true
}

// STag returns the outer service tag of a double-tagged frame.
func (h EthernetHeader) STag() (Tag, bool) {
	if h.tagging != TaggingDouble {
		return Tag{}, false
	}
	return h.outer, true
}

// CTag returns the inner customer tag of a double-tagged frame.
func (h EthernetHeader) CTag() (Tag, bool) {
	if h.tagging != TaggingDouble {
		return Tag{}, false
	}
	return h.inner, true
}

// OuterVID returns the VLAN ID of the outermost tag, or false for untagged frames.
func (h EthernetHeader) OuterVID() (uint16, bool) {
	if h.tagging == TaggingNone {
		return 0, false
	}
	return h.outer.TCI.VID, true
}

// Package core defines core types.
package core

import (
	"encoding/hex"
	"fmt"
	"time"
)

// TCIView is the textual rendering of a TCI.
type TCIView struct {
	PCP uint8  `json:"pcp" yaml:"pcp"`
	DEI uint8  `json:"dei" yaml:"dei"`
	VID uint16 `json:"vid" yaml:"vid"`
}

// TagView is the textual rendering of a Tag.
type TagView struct {
	TPID uint16  `json:"tpid" yaml:"tpid"`
	TCI  TCIView `json:"tci" yaml:"tci"`
}

// FrameView is the textual rendering of a decoded header: MAC addresses and
// payload as lowercase hex, absent tags omitted.
type FrameView struct {
	Index       uint64   `json:"index,omitempty" yaml:"index,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Destination string   `json:"destination" yaml:"destination"`
	Source      string   `json:"source" yaml:"source"`
	Tag         *TagView `json:"tag,omitempty" yaml:"tag,omitempty"`
	STag        *TagView `json:"stag,omitempty" yaml:"stag,omitempty"`
	CTag        *TagView `json:"ctag,omitempty" yaml:"ctag,omitempty"`
	EtherType   uint16   `json:"ethertype" yaml:"ethertype"`
	Payload     string   `json:"payload" yaml:"payload"`
}

// NewFrameView renders a header.
func NewFrameView(h EthernetHeader) FrameView {
	v := FrameView{
		Destination: FormatMAC(h.Destination),
		Source:      FormatMAC(h.Source),
		EtherType:   h.EtherType,
		Payload:     hex.EncodeToString(h.Payload),
	}
	if tag, ok := h.Tag(); ok {
		v.Tag = newTagView(tag)
	}
	if stag, ok := h.STag(); ok {
		v.STag = newTagView(stag)
	}
	if ctag, ok := h.CTag(); ok {
		v.CTag = newTagView(ctag)
	}
	return v
}

// View renders a decoded frame together with its stream position.
func (f DecodedFrame) View() FrameView {
	v := NewFrameView(f.Header)
	v.Index = f.Index
	if !f.Timestamp.IsZero() {
		v.Timestamp = f.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func newTagView(t Tag) *TagView {
	return &TagView{
		TPID: t.TPID,
		TCI: TCIView{
			PCP: t.TCI.PCP,
			DEI: t.TCI.DEI,
			VID: t.TCI.VID,
		},
	}
}

// FormatMAC renders a MAC address as 12 lowercase hex characters.
func FormatMAC(mac [6]byte) string {
	return hex.EncodeToString(mac[:])
}

// EtherTypeName returns a short protocol name, or the hex value when unknown.
func EtherTypeName(t uint16) string {
	switch t {
	case EtherTypeIPv4:
		return "IPv4"
	case EtherTypeARP:
		return "ARP"
	case EtherTypeIPv6:
		return "IPv6"
	case EtherTypeLLDP:
		return "LLDP"
	case TPID8021Q:
		return "802.1Q"
	case TPID8021AD:
		return "802.1ad"
	case TPIDQinQ:
		return "QinQ"
	default:
		return fmt.Sprintf("0x%04x", t)
	}
}

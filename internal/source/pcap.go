package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/ethframe/internal/core"
)

var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// PcapSource reads frames from a pcap or pcapng stream.
type PcapSource struct {
	path   string
	reader packetReader
	closer io.Closer
}

// OpenPcap opens a capture file. The format is detected from its magic number.
func OpenPcap(path string) (*PcapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", path, err)
	}

	s, err := NewPcapSource(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read pcap file %s: %w", path, err)
	}
	s.path = path
	s.closer = f
	return s, nil
}

// NewPcapSource reads a capture from r. Only Ethernet link types are accepted.
func NewPcapSource(r io.Reader) (*PcapSource, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}

	var reader packetReader
	if bytes.Equal(magic, pcapngMagic) {
		reader, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		reader, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, err
	}

	if lt := reader.LinkType(); lt != layers.LinkTypeEthernet {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedLinkType, lt)
	}

	return &PcapSource{reader: reader}, nil
}

// ReadFrame returns the next frame.
func (s *PcapSource) ReadFrame() (core.RawFrame, error) {
	data, ci, err := s.reader.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return core.RawFrame{}, io.EOF
		}
		return core.RawFrame{}, fmt.Errorf("failed to read packet: %w", err)
	}

	return core.RawFrame{
		Data:       data,
		Timestamp:  ci.Timestamp,
		CaptureLen: uint32(ci.CaptureLength),
		OrigLen:    uint32(ci.Length),
	}, nil
}

// Path returns the file path, empty for stream sources.
func (s *PcapSource) Path() string {
	return s.path
}

// Close closes the underlying file.
func (s *PcapSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

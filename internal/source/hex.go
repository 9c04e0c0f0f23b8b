package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"firestige.xyz/ethframe/internal/core"
	"firestige.xyz/ethframe/internal/core/decoder"
)

// maxLineLen bounds a single hex line (jumbo frames fit comfortably).
const maxLineLen = 1 << 20

// HexSource reads one hex-encoded frame per line. Blank lines and lines
// starting with '#' are skipped.
type HexSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewHexSource reads frames from r. If r is an io.Closer it is closed by Close.
func NewHexSource(r io.Reader) *HexSource {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	hs := &HexSource{scanner: s}
	if c, ok := r.(io.Closer); ok {
		hs.closer = c
	}
	return hs
}

// NewHexSourceFromStrings reads frames from in-memory hex strings.
func NewHexSourceFromStrings(frames []string) *HexSource {
	return NewHexSource(strings.NewReader(strings.Join(frames, "\n")))
}

// ReadFrame returns the next frame.
func (s *HexSource) ReadFrame() (core.RawFrame, error) {
	for s.scanner.Scan() {
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		data, err := decoder.ParseHex(text)
		if err != nil {
			return core.RawFrame{}, fmt.Errorf("line %d: %w", s.line, err)
		}
		return core.RawFrame{
			Data:       data,
			CaptureLen: uint32(len(data)),
			OrigLen:    uint32(len(data)),
		}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return core.RawFrame{}, fmt.Errorf("failed to read hex input: %w", err)
	}
	return core.RawFrame{}, io.EOF
}

// Line returns the number of the last line read.
func (s *HexSource) Line() int {
	return s.line
}

// Close closes the underlying reader when it is closable.
func (s *HexSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

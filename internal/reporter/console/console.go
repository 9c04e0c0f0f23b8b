// Package console implements the console reporter.
// Writes decoded frames as JSON lines, YAML documents or text lines.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"firestige.xyz/ethframe/internal/core"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Reporter writes frames to an io.Writer.
type Reporter struct {
	format string
	w      io.Writer

	mu      sync.Mutex
	jsonEnc *json.Encoder
	yamlEnc *yaml.Encoder

	reportedCount atomic.Uint64
}

// New creates a console reporter.
func New(w io.Writer, format string) (*Reporter, error) {
	r := &Reporter{format: format, w: w}
	switch format {
	case FormatJSON:
		r.jsonEnc = json.NewEncoder(w)
	case FormatYAML:
		r.yamlEnc = yaml.NewEncoder(w)
		r.yamlEnc.SetIndent(2)
	case FormatText:
	default:
		return nil, fmt.Errorf("invalid format %q, must be json, yaml or text", format)
	}
	return r, nil
}

// Name returns the reporter name.
func (r *Reporter) Name() string {
	return "console"
}

// Report writes one frame.
func (r *Reporter) Report(ctx context.Context, frame core.DecodedFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	switch r.format {
	case FormatJSON:
		err = r.jsonEnc.Encode(frame.View())
	case FormatYAML:
		err = r.yamlEnc.Encode(frame.View())
	default:
		_, err = io.WriteString(r.w, FormatLine(frame)+"\n")
	}
	if err != nil {
		return fmt.Errorf("console write failed: %w", err)
	}

	r.reportedCount.Add(1)
	return nil
}

// Close flushes pending output.
func (r *Reporter) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.yamlEnc != nil {
		if err := r.yamlEnc.Close(); err != nil {
			return err
		}
	}
	slog.Debug("console reporter closed", "total_reported", r.reportedCount.Load())
	return nil
}

// Reported returns the number of frames written.
func (r *Reporter) Reported() uint64 {
	return r.reportedCount.Load()
}

// FormatLine renders a frame on a single line:
//
//	#1 0a0b0c0d0e0f > 010203040506 802.1Q[vid=16 pcp=0 dei=0] IPv4 len=84
func FormatLine(frame core.DecodedFrame) string {
	h := frame.Header
	var sb strings.Builder

	if frame.Index > 0 {
		fmt.Fprintf(&sb, "#%d ", frame.Index)
	}
	fmt.Fprintf(&sb, "%s > %s", core.FormatMAC(h.Source), core.FormatMAC(h.Destination))

	if tag, ok := h.Tag(); ok {
		sb.WriteString(" " + formatTag(tag))
	}
	if stag, ok := h.STag(); ok {
		sb.WriteString(" " + formatTag(stag))
	}
	if ctag, ok := h.CTag(); ok {
		sb.WriteString(" " + formatTag(ctag))
	}

	fmt.Fprintf(&sb, " %s len=%d", core.EtherTypeName(h.EtherType), len(h.Payload))
	return sb.String()
}

func formatTag(t core.Tag) string {
	return fmt.Sprintf("%s[vid=%d pcp=%d dei=%d]",
		core.EtherTypeName(t.TPID), t.TCI.VID, t.TCI.PCP, t.TCI.DEI)
}

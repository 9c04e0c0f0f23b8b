package console

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"firestige.xyz/ethframe/internal/core"
)

var (
	testDst = [6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	testSrc = [6]byte{0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}
)

func doubleTagged() core.DecodedFrame {
	stag := core.Tag{TPID: core.TPID8021AD, TCI: core.TCI{VID: 16}}
	ctag := core.Tag{TPID: core.TPID8021Q, TCI: core.TCI{PCP: 5, VID: 32}}
	return core.DecodedFrame{
		Index:     7,
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Header:    core.NewDoubleTagged(testDst, testSrc, stag, ctag, core.EtherTypeIPv4, []byte{0x45, 0x00}),
	}
}

func TestNewInvalidFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml")
	assert.Error(t, err)
}

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(&buf, FormatJSON)
	require.NoError(t, err)

	require.NoError(t, r.Report(context.Background(), doubleTagged()))
	require.NoError(t, r.Close(context.Background()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "010203040506", got["destination"])
	assert.Equal(t, "0a0b0c0d0e0f", got["source"])
	assert.Equal(t, float64(0x0800), got["ethertype"])
	assert.Equal(t, "4500", got["payload"])
	assert.Equal(t, "2024-05-01T12:00:00Z", got["timestamp"])
	assert.NotContains(t, got, "tag")

	stag, ok := got["stag"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0x88a8), stag["tpid"])
	assert.Equal(t, map[string]any{"pcp": float64(0), "dei": float64(0), "vid": float64(16)}, stag["tci"])

	ctag, ok := got["ctag"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"pcp": float64(5), "dei": float64(0), "vid": float64(32)}, ctag["tci"])

	assert.Equal(t, uint64(1), r.Reported())
}

func TestReportYAML(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(&buf, FormatYAML)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, r.Report(ctx, doubleTagged()))
	require.NoError(t, r.Report(ctx, doubleTagged()))
	require.NoError(t, r.Close(ctx))

	dec := yaml.NewDecoder(strings.NewReader(buf.String()))
	var docs []core.FrameView
	for {
		var v core.FrameView
		if err := dec.Decode(&v); err != nil {
			break
		}
		docs = append(docs, v)
	}

	require.Len(t, docs, 2)
	assert.Equal(t, "010203040506", docs[0].Destination)
	require.NotNil(t, docs[0].CTag)
	assert.Equal(t, uint16(32), docs[0].CTag.TCI.VID)
	assert.Nil(t, docs[0].Tag)
}

func TestReportText(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(&buf, FormatText)
	require.NoError(t, err)

	require.NoError(t, r.Report(context.Background(), doubleTagged()))

	assert.Equal(t,
		"#7 0a0b0c0d0e0f > 010203040506 802.1ad[vid=16 pcp=0 dei=0] 802.1Q[vid=32 pcp=5 dei=0] IPv4 len=2\n",
		buf.String())
}

func TestFormatLineUntagged(t *testing.T) {
	frame := core.DecodedFrame{
		Header: core.NewUntagged(testDst, testSrc, 0x1234, nil),
	}
	assert.Equal(t, "0a0b0c0d0e0f > 010203040506 0x1234 len=0", FormatLine(frame))
}

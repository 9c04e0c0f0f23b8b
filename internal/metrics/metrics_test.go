package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ethframe/internal/core"
)

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "truncated", ErrorKind(fmt.Errorf("x: %w", core.ErrTruncatedFrame)))
	assert.Equal(t, "invalid", ErrorKind(fmt.Errorf("x: %w", core.ErrInvalidInput)))
	assert.Equal(t, "other", ErrorKind(io.ErrUnexpectedEOF))
}

func TestObserveDecoded(t *testing.T) {
	tag := core.Tag{TPID: core.TPID8021Q, TCI: core.TCI{VID: 16}}
	frame := core.DecodedFrame{
		Header:  core.NewSingleTagged([6]byte{}, [6]byte{}, tag, core.EtherTypeIPv6, nil),
		OrigLen: 128,
	}

	single := FramesDecodedTotal.WithLabelValues("single")
	ipv6 := EtherTypesTotal.WithLabelValues("IPv6")
	beforeSingle := testutil.ToFloat64(single)
	beforeIPv6 := testutil.ToFloat64(ipv6)

	ObserveDecoded(frame)

	assert.Equal(t, beforeSingle+1, testutil.ToFloat64(single))
	assert.Equal(t, beforeIPv6+1, testutil.ToFloat64(ipv6))
}

func TestSnapshot(t *testing.T) {
	DecodeErrorsTotal.WithLabelValues("truncated").Inc()

	samples, err := Snapshot()
	require.NoError(t, err)
	require.NotEmpty(t, samples)

	var found bool
	for i, s := range samples {
		if i > 0 {
			prev := samples[i-1]
			assert.True(t, prev.Name < s.Name || (prev.Name == s.Name && prev.Labels <= s.Labels), "samples sorted")
		}
		if s.Name == "ethframe_decode_errors_total" && s.Labels == "kind=truncated" {
			found = true
			assert.GreaterOrEqual(t, s.Value, float64(1))
			assert.Contains(t, s.String(), "{kind=truncated}")
		}
	}
	assert.True(t, found)
}

func TestServerServesRegistry(t *testing.T) {
	FramesReadTotal.WithLabelValues("hex").Inc()

	s := NewServer("127.0.0.1:0", "")
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ethframe_frames_read_total")
}

func TestServerStopWithoutStart(t *testing.T) {
	assert.NoError(t, NewServer(":0", "/metrics").Stop(context.Background()))
}

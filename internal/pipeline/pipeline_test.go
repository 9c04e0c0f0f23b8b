package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"firestige.xyz/ethframe/internal/core"
	"firestige.xyz/ethframe/internal/filter"
	"firestige.xyz/ethframe/internal/reporter"
	"firestige.xyz/ethframe/internal/reporter/console"
	"firestige.xyz/ethframe/internal/source"
)

const (
	untagged  = "0102030405060a0b0c0d0e0f08004500"
	vlan16    = "0102030405060a0b0c0d0e0f810000100800"
	vlan32    = "0102030405060a0b0c0d0e0f810000200800"
	qinq16    = "0102030405060a0b0c0d0e0f88a8001081000020080045"
	truncated = "0102030405060a0b0c0d0e0f8100"
)

// recordingReporter keeps every frame it receives.
type recordingReporter struct {
	mu     sync.Mutex
	frames []core.DecodedFrame
	err    error
	closed bool
}

func (r *recordingReporter) Name() string { return "recording" }

func (r *recordingReporter) Report(ctx context.Context, frame core.DecodedFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, frame)
	return nil
}

func (r *recordingReporter) Close(ctx context.Context) error {
	r.closed = true
	return nil
}

func newPipeline(frames []string, rep reporter.Reporter, mutate func(*Config)) *Pipeline {
	cfg := Config{
		Name:      "test",
		Source:    source.NewHexSourceFromStrings(frames),
		Reporters: []reporter.Reporter{rep},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func TestPipelineDecodesAll(t *testing.T) {
	rep := &recordingReporter{}
	p := newPipeline([]string{untagged, vlan16, qinq16}, rep, nil)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Read: 3, Decoded: 3, Reported: 3}, stats)
	require.Len(t, rep.frames, 3)

	assert.Equal(t, core.TaggingNone, rep.frames[0].Header.Tagging())
	assert.Equal(t, core.TaggingSingle, rep.frames[1].Header.Tagging())
	assert.Equal(t, core.TaggingDouble, rep.frames[2].Header.Tagging())

	// Source order is preserved.
	for i, f := range rep.frames {
		assert.Equal(t, uint64(i+1), f.Index)
	}
}

func TestPipelineContinuesAfterErrors(t *testing.T) {
	rep := &recordingReporter{}
	p := newPipeline([]string{untagged, truncated, "not-hex", vlan16}, rep, nil)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(4), stats.Read)
	assert.Equal(t, uint64(2), stats.DecodeErrors)
	assert.Equal(t, uint64(2), stats.Decoded)
	assert.Len(t, rep.frames, 2)
}

func TestPipelineStopOnError(t *testing.T) {
	tests := []struct {
		name   string
		frames []string
		target error
	}{
		{"truncated", []string{untagged, truncated, vlan16}, core.ErrTruncatedFrame},
		{"invalid hex", []string{untagged, "0g", vlan16}, core.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &recordingReporter{}
			p := newPipeline(tt.frames, rep, func(c *Config) { c.StopOnError = true })

			stats, err := p.Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			assert.Equal(t, uint64(1), stats.DecodeErrors)
			assert.Len(t, rep.frames, 1, "frames after the failure are not reported")
		})
	}
}

func TestPipelineFilter(t *testing.T) {
	f, err := filter.New(filter.Options{VLANID: 16})
	require.NoError(t, err)

	rep := &recordingReporter{}
	p := newPipeline([]string{untagged, vlan16, vlan32, qinq16}, rep, func(c *Config) { c.Filter = f })

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(4), stats.Read)
	assert.Equal(t, uint64(2), stats.Filtered)
	assert.Equal(t, uint64(2), stats.Decoded)
	for _, fr := range rep.frames {
		vid, ok := fr.Header.OuterVID()
		require.True(t, ok)
		assert.Equal(t, uint16(16), vid)
	}
}

func TestPipelineRateLimit(t *testing.T) {
	limiter := NewSourceRateLimiter(SourceRateLimiterConfig{MaxFramesPerSource: 2, Window: time.Hour})

	rep := &recordingReporter{}
	p := newPipeline([]string{untagged, vlan16, vlan32, qinq16}, rep, func(c *Config) { c.RateLimiter = limiter })

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(2), stats.Decoded)
	assert.Equal(t, uint64(2), stats.RateLimited)
	assert.Equal(t, int64(2), limiter.Rejected())
}

// mockReporter is a testify mock of reporter.Reporter.
type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) Name() string { return "mock" }

func (m *mockReporter) Report(ctx context.Context, frame core.DecodedFrame) error {
	return m.Called(ctx, frame).Error(0)
}

func (m *mockReporter) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestPipelineReporterError(t *testing.T) {
	rep := new(mockReporter)
	rep.On("Report", mock.Anything, mock.Anything).Return(errors.New("broker down")).Times(2)

	p := newPipeline([]string{untagged, vlan16}, rep, nil)
	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.ReportErrors)
	assert.Equal(t, uint64(0), stats.Reported)
	rep.AssertExpectations(t)
}

func TestPipelineReporterErrorStops(t *testing.T) {
	rep := new(mockReporter)
	rep.On("Report", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	rep.On("Close", mock.Anything).Return(nil).Once()

	p := newPipeline([]string{untagged, vlan16}, rep, func(c *Config) { c.StopOnError = true })
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	require.NoError(t, p.Close(context.Background()))
	rep.AssertExpectations(t)
}

func TestPipelineConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	con, err := console.New(&buf, console.FormatText)
	require.NoError(t, err)

	p := newPipeline([]string{vlan16}, con, nil)
	_, err = p.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Close(context.Background()))

	assert.Equal(t, "#1 0a0b0c0d0e0f > 010203040506 802.1Q[vid=16 pcp=0 dei=0] IPv4 len=0\n", buf.String())
}

// blockingSource never returns a frame until closed.
type blockingSource struct {
	done chan struct{}
}

func (s *blockingSource) ReadFrame() (core.RawFrame, error) {
	<-s.done
	return core.RawFrame{}, io.EOF
}

func (s *blockingSource) Close() error {
	close(s.done)
	return nil
}

func TestPipelineContextCancel(t *testing.T) {
	src := &blockingSource{done: make(chan struct{})}
	p := New(Config{Source: src})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	require.NoError(t, p.Close(context.Background()))
}

// failingSource returns a non-input error.
type failingSource struct{}

func (failingSource) ReadFrame() (core.RawFrame, error) {
	return core.RawFrame{}, errors.New("disk on fire")
}

func (failingSource) Close() error { return nil }

func TestPipelineSourceFailure(t *testing.T) {
	p := New(Config{Source: failingSource{}})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "disk on fire"))
}

func TestPipelineClose(t *testing.T) {
	rep := &recordingReporter{}
	p := newPipeline(nil, rep, nil)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	require.NoError(t, p.Close(context.Background()))
	assert.True(t, rep.closed)
}

// Package metrics implements Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"firestige.xyz/ethframe/internal/core"
)

// Registry holds every ethframe metric. It is separate from the default
// registry so a snapshot contains only decode statistics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// FramesReadTotal counts frames read by source kind
	FramesReadTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethframe_frames_read_total",
			Help: "Total number of frames read from sources",
		},
		[]string{"source"},
	)

	// FramesDecodedTotal counts successfully decoded frames by tag layout
	FramesDecodedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethframe_frames_decoded_total",
			Help: "Total number of decoded frames",
		},
		[]string{"tagging"},
	)

	// EtherTypesTotal counts decoded frames by final EtherType
	EtherTypesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethframe_ethertypes_total",
			Help: "Total number of decoded frames per final EtherType",
		},
		[]string{"ethertype"},
	)

	// DecodeErrorsTotal counts decode failures by error kind
	DecodeErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethframe_decode_errors_total",
			Help: "Total number of frames that failed to decode",
		},
		[]string{"kind"},
	)

	// FramesFilteredTotal counts frames dropped before decoding
	FramesFilteredTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethframe_frames_filtered_total",
			Help: "Total number of frames dropped before decoding",
		},
		[]string{"reason"},
	)

	// FrameSizeBytes tracks the original length of decoded frames
	FrameSizeBytes = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ethframe_frame_size_bytes",
			Help:    "Original length of decoded frames",
			Buckets: prometheus.ExponentialBuckets(64, 2, 9), // 64 .. 16384
		},
	)

	// ReporterErrorsTotal counts reporter failures
	ReporterErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethframe_reporter_errors_total",
			Help: "Total number of reporter errors",
		},
		[]string{"reporter"},
	)
)

// Filter reasons
const (
	FilterReasonBPF       = "bpf"
	FilterReasonRateLimit = "rate_limit"
)

// ErrorKind maps a decode error to its metric label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrTruncatedFrame):
		return "truncated"
	case errors.Is(err, core.ErrInvalidInput):
		return "invalid"
	default:
		return "other"
	}
}

// ObserveDecoded records a successfully decoded frame.
func ObserveDecoded(f core.DecodedFrame) {
	FramesDecodedTotal.WithLabelValues(f.Header.Tagging().String()).Inc()
	EtherTypesTotal.WithLabelValues(core.EtherTypeName(f.Header.EtherType)).Inc()
	FrameSizeBytes.Observe(float64(f.OrigLen))
}

// Sample is one counter value from a snapshot.
type Sample struct {
	Name   string
	Labels string // k=v pairs, comma separated
	Value  float64
}

func (s Sample) String() string {
	if s.Labels == "" {
		return fmt.Sprintf("%s %g", s.Name, s.Value)
	}
	return fmt.Sprintf("%s{%s} %g", s.Name, s.Labels, s.Value)
}

// Snapshot gathers all counters of the registry, sorted by name and labels.
// Histograms report their sample count.
func Snapshot() ([]Sample, error) {
	families, err := Registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var samples []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			pairs := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				pairs = append(pairs, lp.GetName()+"="+lp.GetValue())
			}

			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}

			samples = append(samples, Sample{
				Name:   mf.GetName(),
				Labels: strings.Join(pairs, ","),
				Value:  value,
			})
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Labels < samples[j].Labels
	})
	return samples, nil
}

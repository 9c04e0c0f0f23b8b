package pipeline

import (
	"sync/atomic"
)

// Metrics contains per-pipeline counters.
type Metrics struct {
	Read         atomic.Uint64
	Filtered     atomic.Uint64
	RateLimited  atomic.Uint64
	Decoded      atomic.Uint64
	DecodeErrors atomic.Uint64
	Reported     atomic.Uint64
	ReportErrors atomic.Uint64
}

// Stats is a point-in-time copy of Metrics.
type Stats struct {
	Read         uint64
	Filtered     uint64
	RateLimited  uint64
	Decoded      uint64
	DecodeErrors uint64
	Reported     uint64
	ReportErrors uint64
}

func (m *Metrics) snapshot() Stats {
	return Stats{
		Read:         m.Read.Load(),
		Filtered:     m.Filtered.Load(),
		RateLimited:  m.RateLimited.Load(),
		Decoded:      m.Decoded.Load(),
		DecodeErrors: m.DecodeErrors.Load(),
		Reported:     m.Reported.Load(),
		ReportErrors: m.ReportErrors.Load(),
	}
}

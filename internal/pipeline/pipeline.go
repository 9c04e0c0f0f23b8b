// Package pipeline implements the frame decode pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"firestige.xyz/ethframe/internal/core"
	"firestige.xyz/ethframe/internal/core/decoder"
	"firestige.xyz/ethframe/internal/filter"
	"firestige.xyz/ethframe/internal/metrics"
	"firestige.xyz/ethframe/internal/reporter"
	"firestige.xyz/ethframe/internal/source"
)

// Config contains pipeline configuration.
type Config struct {
	Name        string // source label for metrics, e.g. "hex" or "pcap"
	Source      source.Source
	Filter      *filter.Filter // nil accepts all
	Decoder     decoder.Decoder
	RateLimiter *SourceRateLimiter // nil disables
	Reporters   []reporter.Reporter
	StopOnError bool
	BufferSize  int // read-ahead channel size
}

// Pipeline reads frames from a source, filters and decodes them, and hands
// the results to reporters. Frames are processed in source order.
type Pipeline struct {
	cfg     Config
	metrics Metrics
}

type readResult struct {
	frame core.RawFrame
	err   error
}

// New creates a new pipeline.
func New(cfg Config) *Pipeline {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.Name == "" {
		cfg.Name = "unknown"
	}
	if cfg.Decoder == nil {
		cfg.Decoder = decoder.NewStandardDecoder(decoder.Config{})
	}
	return &Pipeline{cfg: cfg}
}

// Run processes frames until the source is exhausted, ctx is cancelled, or,
// with StopOnError, the first frame error.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	slog.Debug("pipeline starting", "source", p.cfg.Name)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan readResult, p.cfg.BufferSize)
	go p.readLoop(ctx, frames)

	for {
		select {
		case <-ctx.Done():
			return p.Stats(), ctx.Err()

		case res, ok := <-frames:
			if !ok {
				slog.Debug("pipeline finished", "source", p.cfg.Name)
				return p.Stats(), nil
			}
			if err := p.process(ctx, res); err != nil {
				return p.Stats(), err
			}
		}
	}
}

// readLoop reads the source into the channel; it closes the channel at EOF
// or after a source failure.
func (p *Pipeline) readLoop(ctx context.Context, out chan<- readResult) {
	defer close(out)

	for {
		raw, err := p.cfg.Source.ReadFrame()
		if errors.Is(err, io.EOF) {
			return
		}

		select {
		case out <- readResult{frame: raw, err: err}:
		case <-ctx.Done():
			return
		}

		// Anything other than a per-frame input error ends the stream.
		if err != nil && !errors.Is(err, core.ErrInvalidInput) {
			return
		}
	}
}

func (p *Pipeline) process(ctx context.Context, res readResult) error {
	p.metrics.Read.Add(1)
	metrics.FramesReadTotal.WithLabelValues(p.cfg.Name).Inc()

	if res.err != nil {
		if !errors.Is(res.err, core.ErrInvalidInput) {
			return fmt.Errorf("source failed: %w", res.err)
		}
		return p.frameError(res.err)
	}

	raw := res.frame
	if !p.cfg.Filter.Match(raw.Data) {
		p.metrics.Filtered.Add(1)
		metrics.FramesFilteredTotal.WithLabelValues(metrics.FilterReasonBPF).Inc()
		return nil
	}

	decoded, err := p.cfg.Decoder.Decode(raw)
	if err != nil {
		return p.frameError(fmt.Errorf("frame %d: %w", p.metrics.Read.Load(), err))
	}

	now := decoded.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	if !p.cfg.RateLimiter.Allow(decoded.Header.Source, now) {
		p.metrics.RateLimited.Add(1)
		metrics.FramesFilteredTotal.WithLabelValues(metrics.FilterReasonRateLimit).Inc()
		return nil
	}

	p.metrics.Decoded.Add(1)
	metrics.ObserveDecoded(decoded)

	return p.report(ctx, decoded)
}

func (p *Pipeline) frameError(err error) error {
	p.metrics.DecodeErrors.Add(1)
	metrics.DecodeErrorsTotal.WithLabelValues(metrics.ErrorKind(err)).Inc()

	if p.cfg.StopOnError {
		return err
	}
	slog.Warn("frame skipped", "source", p.cfg.Name, "error", err)
	return nil
}

func (p *Pipeline) report(ctx context.Context, frame core.DecodedFrame) error {
	var failed bool
	for _, r := range p.cfg.Reporters {
		if err := r.Report(ctx, frame); err != nil {
			failed = true
			p.metrics.ReportErrors.Add(1)
			metrics.ReporterErrorsTotal.WithLabelValues(r.Name()).Inc()
			slog.Error("reporter failed", "reporter", r.Name(), "error", err)
			if p.cfg.StopOnError {
				return fmt.Errorf("reporter %s: %w", r.Name(), err)
			}
		}
	}
	if !failed {
		p.metrics.Reported.Add(1)
	}
	return nil
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Stats {
	return p.metrics.snapshot()
}

// Close closes reporters and the source.
func (p *Pipeline) Close(ctx context.Context) error {
	var errs []error
	for _, r := range p.cfg.Reporters {
		if err := r.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close reporter %s: %w", r.Name(), err))
		}
	}
	if p.cfg.Source != nil {
		if err := p.cfg.Source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close source: %w", err))
		}
	}
	return errors.Join(errs...)
}

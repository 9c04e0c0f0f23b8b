package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"firestige.xyz/ethframe/internal/config"
	"firestige.xyz/ethframe/internal/core/decoder"
	"firestige.xyz/ethframe/internal/filter"
	"firestige.xyz/ethframe/internal/log"
	"firestige.xyz/ethframe/internal/metrics"
	"firestige.xyz/ethframe/internal/pipeline"
	"firestige.xyz/ethframe/internal/reporter"
	"firestige.xyz/ethframe/internal/reporter/console"
	"firestige.xyz/ethframe/internal/reporter/kafka"
	"firestige.xyz/ethframe/internal/source"
)

// runOptions carries the per-invocation pieces a command hands to run.
type runOptions struct {
	cfg        *config.Config
	src        source.Source
	sourceName string
	out        io.Writer // decoded frames
	errOut     io.Writer // stats
	stats      bool
}

// run wires a pipeline from configuration, runs it to completion and
// reports the outcome. It returns an error if any frame failed.
func run(ctx context.Context, opts runOptions) error {
	cfg := opts.cfg

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(ctx); err != nil {
			opts.src.Close()
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer srv.Stop(context.Background())
		slog.Info("metrics server started", "addr", srv.Addr(), "path", cfg.Metrics.Path)
	}

	p, err := buildPipeline(cfg, opts)
	if err != nil {
		opts.src.Close()
		return err
	}

	stats, runErr := p.Run(ctx)
	if err := p.Close(context.Background()); err != nil {
		slog.Warn("failed to close pipeline", "error", err)
	}

	slog.Debug("decode finished",
		"source", opts.sourceName,
		"read", stats.Read,
		"decoded", stats.Decoded,
		"filtered", stats.Filtered,
		"rate_limited", stats.RateLimited,
		"errors", stats.DecodeErrors,
	)

	if opts.stats {
		if err := writeStats(opts.errOut, stats); err != nil {
			slog.Warn("failed to write stats", "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if stats.DecodeErrors > 0 {
		return fmt.Errorf("%d of %d frame(s) failed to decode", stats.DecodeErrors, stats.Read)
	}
	if stats.ReportErrors > 0 {
		return fmt.Errorf("%d report(s) failed", stats.ReportErrors)
	}
	return nil
}

func buildPipeline(cfg *config.Config, opts runOptions) (*pipeline.Pipeline, error) {
	f, err := filter.New(filter.Options{
		TaggedOnly: cfg.Filter.TaggedOnly,
		VLANID:     cfg.Filter.VLANID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}
	if f != nil {
		slog.Debug("frame filter enabled", "program", f.String())
	}

	window, err := cfg.Pipeline.RateLimit.WindowDuration()
	if err != nil {
		return nil, err
	}
	limiter := pipeline.NewSourceRateLimiter(pipeline.SourceRateLimiterConfig{
		MaxFramesPerSource: cfg.Pipeline.RateLimit.MaxFramesPerSource,
		Window:             window,
	})

	reporters, err := buildReporters(cfg, opts.out)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Config{
		Name:        opts.sourceName,
		Source:      opts.src,
		Filter:      f,
		Decoder:     decoder.NewStandardDecoder(decoder.Config{CopyPayload: cfg.Decoder.CopyPayload}),
		RateLimiter: limiter,
		Reporters:   reporters,
		StopOnError: cfg.Pipeline.StopOnError,
	}), nil
}

func buildReporters(cfg *config.Config, out io.Writer) ([]reporter.Reporter, error) {
	con, err := console.New(out, cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	reporters := []reporter.Reporter{con}

	if cfg.Reporters.Kafka.Enabled {
		kr, err := kafka.New(cfg.Reporters.Kafka)
		if err != nil {
			con.Close(context.Background())
			return nil, fmt.Errorf("failed to create kafka reporter: %w", err)
		}
		reporters = append(reporters, kr)
		slog.Info("kafka reporter enabled",
			"brokers", cfg.Reporters.Kafka.Brokers,
			"topic", cfg.Reporters.Kafka.Topic)
	}
	return reporters, nil
}

// writeStats prints the pipeline counters followed by the metric samples.
func writeStats(w io.Writer, s pipeline.Stats) error {
	fmt.Fprintf(w, "read=%d decoded=%d filtered=%d rate_limited=%d errors=%d reported=%d report_errors=%d\n",
		s.Read, s.Decoded, s.Filtered, s.RateLimited, s.DecodeErrors, s.Reported, s.ReportErrors)

	samples, err := metrics.Snapshot()
	if err != nil {
		return err
	}
	for _, sample := range samples {
		if _, err := fmt.Fprintln(w, sample.String()); err != nil {
			return err
		}
	}
	return nil
}

// initLogging sets up the process logger from configuration.
func initLogging(cfg *config.Config) error {
	if err := log.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

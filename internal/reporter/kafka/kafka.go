// Package kafka implements the Kafka reporter.
// Sends decoded frames to Kafka as JSON with batching, compression and retry.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"firestige.xyz/ethframe/internal/config"
	"firestige.xyz/ethframe/internal/core"
)

const (
	defaultBatchSize    = 100
	defaultBatchTimeout = 100 * time.Millisecond
	defaultMaxAttempts  = 3
)

// messageWriter is the subset of *kafka.Writer used by the reporter.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Reporter sends frames to a Kafka topic.
type Reporter struct {
	writer messageWriter
	config config.KafkaReporterConfig

	// Statistics
	reportedCount atomic.Uint64
	errorCount    atomic.Uint64
}

// New creates a Kafka reporter from configuration.
func New(cfg config.KafkaReporterConfig) (*Reporter, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	batchTimeout := defaultBatchTimeout
	if cfg.BatchTimeout != "" {
		d, err := time.ParseDuration(cfg.BatchTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid batch_timeout: %w", err)
		}
		batchTimeout = d
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	codec, err := compressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:          cfg.Brokers,
		Topic:            cfg.Topic,
		Balancer:         &kafka.Hash{}, // same source MAC, same partition
		BatchSize:        cfg.BatchSize,
		BatchTimeout:     batchTimeout,
		MaxAttempts:      cfg.MaxAttempts,
		CompressionCodec: codec,
	})

	slog.Info("kafka reporter started",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"batch_size", cfg.BatchSize,
		"batch_timeout", batchTimeout,
		"compression", cfg.Compression,
	)

	return newWithWriter(writer, cfg), nil
}

func newWithWriter(w messageWriter, cfg config.KafkaReporterConfig) *Reporter {
	return &Reporter{writer: w, config: cfg}
}

func compressionCodec(name string) (compress.Codec, error) {
	switch name {
	case "none", "":
		return nil, nil
	case "gzip":
		return compress.Gzip.Codec(), nil
	case "snappy":
		return compress.Snappy.Codec(), nil
	case "lz4":
		return compress.Lz4.Codec(), nil
	default:
		return nil, fmt.Errorf("invalid compression type: %s", name)
	}
}

// Name returns the reporter name.
func (r *Reporter) Name() string {
	return "kafka"
}

// Report sends a frame to Kafka.
func (r *Reporter) Report(ctx context.Context, frame core.DecodedFrame) error {
	msg, err := buildMessage(frame)
	if err != nil {
		r.errorCount.Add(1)
		return fmt.Errorf("serialize frame failed: %w", err)
	}

	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		r.errorCount.Add(1)
		return fmt.Errorf("kafka write failed: %w", err)
	}

	r.reportedCount.Add(1)
	return nil
}

// buildMessage keys a frame by its MAC pair so a conversation lands on one partition.
func buildMessage(frame core.DecodedFrame) (kafka.Message, error) {
	value, err := json.Marshal(frame.View())
	if err != nil {
		return kafka.Message{}, err
	}

	ts := frame.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return kafka.Message{
		Key:   []byte(core.FormatMAC(frame.Header.Source) + ">" + core.FormatMAC(frame.Header.Destination)),
		Value: value,
		Time:  ts,
	}, nil
}

// Close flushes pending messages and closes the writer.
func (r *Reporter) Close(ctx context.Context) error {
	if r.writer != nil {
		if err := r.writer.Close(); err != nil {
			slog.Error("error closing kafka writer", "error", err)
			return err
		}
	}

	slog.Info("kafka reporter stopped",
		"total_reported", r.reportedCount.Load(),
		"total_errors", r.errorCount.Load(),
	)
	return nil
}

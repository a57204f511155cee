// Package kafka publishes JSON records for the report and log streams.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

var (
	ErrNoBrokers          = errors.New("kafka: no brokers configured")
	ErrUnknownCompression = errors.New("kafka: unknown compression codec")
	ErrInvalidAcks        = errors.New("kafka: required acks must be -1, 0 or 1")
)

// Config mirrors the kafka section of the application config. Zero values
// take the defaults of NewProducer.
type Config struct {
	Brokers      []string
	Compression  string
	RequiredAcks int
	MaxAttempts  int
	BatchSize    int
	BatchBytes   int
	Linger       time.Duration
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	Async        bool
}

var codecs = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer is a single writer shared by every topic. Records are balanced by
// key hash so all events of one report stay on one partition.
type Producer struct {
	w           messageWriter
	compression string
}

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.Compression == "" {
		cfg.Compression = "gzip"
	}
	codec, ok := codecs[cfg.Compression]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, cfg.Compression)
	}
	if cfg.RequiredAcks < -1 || cfg.RequiredAcks > 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAcks, cfg.RequiredAcks)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Linger <= 0 {
		cfg.Linger = 100 * time.Millisecond
	}

	registerMetrics()
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  codec,
			MaxAttempts:  cfg.MaxAttempts,
			BatchSize:    cfg.BatchSize,
			BatchBytes:   int64(cfg.BatchBytes),
			BatchTimeout: cfg.Linger,
			WriteTimeout: cfg.WriteTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			Async:        cfg.Async,
		},
		compression: cfg.Compression,
	}, nil
}

// Publish writes value to topic under key. Values other than []byte are
// encoded as JSON.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	payload, ok := value.([]byte)
	if !ok {
		var err error
		if payload, err = json.Marshal(value); err != nil {
			return fmt.Errorf("kafka: encode %s record: %w", topic, err)
		}
	}

	start := time.Now()
	err := p.w.WriteMessages(ctx, kafka.Message{Topic: topic, Key: key, Value: payload, Time: start.UTC()})
	observe(topic, p.compression, len(payload), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka: write %s: %w", topic, err)
	}
	return nil
}

// PublishMessage writes an unkeyed record. The log collector uses it for
// aggregated error batches.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

func (p *Producer) Close() error {
	return p.w.Close()
}

var (
	metricsOnce sync.Once
	published   *prometheus.CounterVec
	bytesOut    *prometheus.CounterVec
	writeTime   *prometheus.HistogramVec
)

func registerMetrics() {
	metricsOnce.Do(func() {
		published = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clmmlens_kafka_records_total",
			Help: "Records written to kafka by topic and result.",
		}, []string{"topic", "result"})
		bytesOut = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clmmlens_kafka_bytes_total",
			Help: "Encoded record bytes written to kafka by topic and codec.",
		}, []string{"topic", "compression"})
		writeTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clmmlens_kafka_write_seconds",
			Help:    "Time spent in WriteMessages.",
			Buckets: []float64{0.001, 0.005, 0.02, 0.1, 0.5, 1, 5, 10},
		}, []string{"topic"})
	})
}

func observe(topic, compression string, n int, took time.Duration, err error) {
	if published == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	published.WithLabelValues(topic, result).Inc()
	if err == nil {
		bytesOut.WithLabelValues(topic, compression).Add(float64(n))
	}
	writeTime.WithLabelValues(topic).Observe(took.Seconds())
}

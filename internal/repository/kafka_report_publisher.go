package repository

import (
	"context"
	"fmt"

	"ClmmLens/internal/domain/models"
	domrepo "ClmmLens/internal/domain/repository"
)

// Producer is the subset of pkg/kafka.Producer used for reports.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaReportPublisher publishes report events keyed by report id.
type KafkaReportPublisher struct {
	producer Producer
	topic    string
}

var _ domrepo.ReportPublisher = (*KafkaReportPublisher)(nil)

func NewKafkaReportPublisher(producer Producer, topic string) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, ev models.ReportEvent) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(ev.ID), ev); err != nil {
		return fmt.Errorf("publish %s report %s: %w", ev.Kind, ev.ID, err)
	}
	return nil
}

func (p *KafkaReportPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopReportPublisher drops every report. Used when kafka is disabled.
type NopReportPublisher struct{}

func (NopReportPublisher) PublishReport(context.Context, models.ReportEvent) error { return nil }

func (NopReportPublisher) Close() error { return nil }

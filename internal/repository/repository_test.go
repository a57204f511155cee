package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ClmmLens/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topic  string
	key    []byte
	value  interface{}
	err    error
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return f.err
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaReportPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaReportPublisher(fp, "clmmlens.reports")

	ev := models.ReportEvent{
		ID:        "abc",
		Kind:      models.ReportRangePlan,
		CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Payload:   map[string]float64{"spot": 3000},
	}
	require.NoError(t, p.PublishReport(context.Background(), ev))
	assert.Equal(t, "clmmlens.reports", fp.topic)
	assert.Equal(t, []byte("abc"), fp.key)

	b, err := json.Marshal(fp.value)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","kind":"range_plan","created_at":"2025-01-02T00:00:00Z","payload":{"spot":3000}}`, string(b))

	fp.err = errors.New("broker down")
	assert.ErrorContains(t, p.PublishReport(context.Background(), ev), "broker down")

	require.NoError(t, p.Close())
	assert.True(t, fp.closed)
}

func TestCHPriceStoreIdentifiers(t *testing.T) {
	_, err := NewCHPriceStore(nil, "clmmlens", "daily_closes; DROP", nil)
	require.Error(t, err)

	s, err := NewCHPriceStore(nil, "clmmlens", "daily_closes", nil)
	require.NoError(t, err)
	ddl := s.Schema()
	require.Len(t, ddl, 2)
	assert.Contains(t, ddl[1], "clmmlens.daily_closes")
	assert.Contains(t, ddl[1], "ReplacingMergeTree")
	assert.Contains(t, s.dailyClosesQuery(), "FROM clmmlens.daily_closes FINAL")
}

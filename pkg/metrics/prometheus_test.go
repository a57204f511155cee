package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordFetch("provider", "ok")
	r.RecordFetch("provider", "ok")
	r.RecordFetch("cache", "hit")
	r.RecordLastPrice("ETH", 3012.5)
	r.RecordError("coingecko")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetches.WithLabelValues("provider", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues("cache", "hit")))
	assert.Equal(t, 3012.5, testutil.ToFloat64(r.lastPrice.WithLabelValues("ETH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("coingecko")))
}

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstThenRefill(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := New(3, 1)
	l.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("ip"), "burst %d", i)
	}
	assert.False(t, l.Allow("ip"))
	assert.True(t, l.Allow("other"), "keys are independent")

	clock = clock.Add(1500 * time.Millisecond)
	assert.True(t, l.Allow("ip"))
	assert.False(t, l.Allow("ip"))

	clock = clock.Add(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("ip"))
	}
	assert.False(t, l.Allow("ip"), "refill is capped at capacity")
}

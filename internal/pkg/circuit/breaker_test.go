package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker("test", 3, 30*time.Second)

	b.Failure()
	b.Failure()
	assert.Equal(t, Closed, b.State())
	assert.True(t, b.Allow())

	b.Failure()
	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 3, 30*time.Second)

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()
	assert.Equal(t, Closed, b.State())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker("test", 1, 30*time.Second)
	b.SetClock(func() time.Time { return now })

	b.Failure()
	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())

	// 冷却期结束后放行一次探测
	now = now.Add(31 * time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.State())

	t.Run("probe success closes", func(t *testing.T) {
		b.Success()
		assert.Equal(t, Closed, b.State())
	})
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker("test", 1, 30*time.Second)
	b.SetClock(func() time.Time { return now })

	b.Failure()
	now = now.Add(31 * time.Second)
	assert.True(t, b.Allow())

	b.Failure()
	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", Closed.String())
	assert.Equal(t, "OPEN", Open.String())
	assert.Equal(t, "HALF-OPEN", HalfOpen.String())
}

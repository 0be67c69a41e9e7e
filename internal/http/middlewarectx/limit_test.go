package middlewarectx

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rps float64, burst int, ttl time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)}
	l := NewRateLimiter(rps, burst, ttl)
	l.now = clock.Now
	l.lastSweep = clock.Now()
	return l, clock
}

func TestRateLimiter_EvictsIdleKeys(t *testing.T) {
	l, clock := newTestLimiter(1, 1, time.Minute)

	for i := 0; i < 1000; i++ {
		require.True(t, l.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256)))
	}
	assert.Equal(t, 1000, l.Len())

	clock.Advance(2 * time.Minute)
	assert.True(t, l.Allow("u-active"))
	assert.Equal(t, 1, l.Len(), "idle keys must be pruned after the ttl")
}

func TestRateLimiter_KeepsRecentKeys(t *testing.T) {
	l, clock := newTestLimiter(1, 1, time.Minute)

	l.Allow("u-old")
	clock.Advance(30 * time.Second)
	l.Allow("u-recent")
	clock.Advance(45 * time.Second)

	// u-old простаивает 75s, u-recent только 45s.
	l.Allow("u-new")
	assert.Equal(t, 2, l.Len())

	l.mu.Lock()
	_, oldKept := l.entries["u-old"]
	_, recentKept := l.entries["u-recent"]
	l.mu.Unlock()
	assert.False(t, oldKept)
	assert.True(t, recentKept)
}

func TestRateLimiter_SweepThrottled(t *testing.T) {
	l, clock := newTestLimiter(1, 1, time.Minute)

	l.Allow("u1")
	clock.Advance(59 * time.Second)
	l.Allow("u2")
	assert.Equal(t, 2, l.Len(), "no sweep before the ttl since the last one")
}

func TestRateLimiter_LimitSurvivesWhileActive(t *testing.T) {
	l, clock := newTestLimiter(0.001, 2, time.Minute)

	assert.True(t, l.Allow("u1"))
	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))

	for i := 0; i < 3; i++ {
		clock.Advance(50 * time.Second)
		assert.False(t, l.Allow("u1"), "an active key keeps its exhausted bucket")
	}
}

func TestNewRateLimiter_DefaultTTL(t *testing.T) {
	l := NewRateLimiter(1, 1, 0)
	assert.Equal(t, DefaultIdleTTL, l.idleTTL)
}

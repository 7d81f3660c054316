package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(rps float64, burst int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := New(rps, burst)
	l.now = clock.Now
	return l, clock
}

func TestAllow_BurstThenRefill(t *testing.T) {
	l, clock := newTestLimiter(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("alice"), "request %d within burst", i)
	}
	assert.False(t, l.Allow("alice"), "burst exhausted")

	clock.Advance(time.Second)
	assert.True(t, l.Allow("alice"), "one token refilled")
	assert.False(t, l.Allow("alice"))
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 1)

	require.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))
	assert.True(t, l.Allow("bob"))
	assert.Equal(t, 2, l.Len())
}

func TestEvict(t *testing.T) {
	l, clock := newTestLimiter(10, 10)

	l.Allow("alice")
	clock.Advance(5 * time.Minute)
	l.Allow("bob")
	clock.Advance(6 * time.Minute)

	assert.Equal(t, 1, l.Evict(10*time.Minute))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 0, l.Evict(10*time.Minute))

	clock.Advance(time.Hour)
	assert.Equal(t, 1, l.Evict(10*time.Minute))
	assert.Zero(t, l.Len())
}

func TestEvict_ResetsBucket(t *testing.T) {
	l, clock := newTestLimiter(0.001, 1)

	require.True(t, l.Allow("alice"))
	require.False(t, l.Allow("alice"))

	clock.Advance(time.Minute)
	require.Equal(t, 1, l.Evict(30*time.Second))
	assert.True(t, l.Allow("alice"), "evicted key starts with a full bucket")
}

func TestAllow_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(1, 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestNewSweeper_InvalidSpec(t *testing.T) {
	_, err := NewSweeper(New(1, 1), "not a schedule", time.Minute)
	assert.Error(t, err)
}

func TestSweeper_StartStop(t *testing.T) {
	s, err := NewSweeper(New(1, 1), "@every 1h", time.Minute)
	require.NoError(t, err)
	s.Start()
	s.Stop()
}

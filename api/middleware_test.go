package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiterCleanupDropsIdleVisitors(t *testing.T) {
	l := newIPRateLimiter(60)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.get("10.0.0.1")
	l.get("10.0.0.2")
	now = now.Add(5 * time.Minute)
	l.get("10.0.0.1")
	l.get("10.0.0.3")
	require.Equal(t, 3, l.size())

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, l.cleanup(10*time.Minute))
	assert.Equal(t, 2, l.size())

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 2, l.cleanup(10*time.Minute))
	assert.Equal(t, 0, l.size())
}

func TestIPRateLimiterKeepsBucketWhileActive(t *testing.T) {
	l := newIPRateLimiter(6)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	first := l.get("10.0.0.1")
	now = now.Add(9 * time.Minute)
	assert.Zero(t, l.cleanup(10*time.Minute))
	assert.Same(t, first, l.get("10.0.0.1"))
}

func TestIPRateLimiterRunCleanupStopsWithContext(t *testing.T) {
	l := newIPRateLimiter(60)
	l.get("10.0.0.1")
	l.visitors["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.runCleanup(ctx, 5*time.Millisecond, time.Minute, testLogger())
		close(done)
	}()

	assert.Eventually(t, func() bool { return l.size() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runCleanup did not stop after cancel")
	}
}

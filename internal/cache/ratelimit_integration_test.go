//go:build integration

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dropgate/dropgate/internal/testutil"
)

// TestAuthRateLimitConcurrency verifies the token bucket under concurrent
// load. Requires a running Redis, selected via REDIS_URL.
func TestAuthRateLimitConcurrency(t *testing.T) {
	ctx := context.Background()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	cacheClient, err := New(ctx, redisURL)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer cacheClient.Close()

	// A unique IP per run keeps state from earlier runs out of the picture
	ip := testutil.UniqueID("192.0.2.1")
	rpm := 10
	burst := 5

	var allowed, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				result, err := cacheClient.CheckAuthRateLimit(ctx, ip, rpm, burst)
				if err != nil {
					t.Errorf("CheckAuthRateLimit error: %v", err)
					return
				}
				if result.Allowed {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}
	wg.Wait()

	t.Logf("concurrency test: %d allowed, %d rejected", allowed, rejected)

	if allowed > int64(burst+rpm) {
		t.Errorf("too many requests allowed: %d (expected <= %d)", allowed, burst+rpm)
	}
	if rejected == 0 {
		t.Error("expected some requests to be rejected")
	}
}

// TestAuthRateLimitZeroRPM verifies that a zero rate disables limiting.
func TestAuthRateLimitZeroRPM(t *testing.T) {
	ctx := context.Background()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	cacheClient, err := New(ctx, redisURL)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer cacheClient.Close()

	for i := 0; i < 50; i++ {
		result, err := cacheClient.CheckAuthRateLimit(ctx, "198.51.100.1", 0, 10)
		if err != nil {
			t.Fatalf("CheckAuthRateLimit error: %v", err)
		}
		if !result.Allowed {
			t.Fatal("zero RPM should never reject")
		}
	}
}

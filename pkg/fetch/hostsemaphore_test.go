package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sriram-PR/fcf-scraper/pkg/config"
	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

func newTestPool(limit int) *HostSemaphorePool {
	return NewHostSemaphorePool(limit, testLogger())
}

func TestHostSemaphore_AcquireRelease_Basic(t *testing.T) {
	pool := newTestPool(2)

	if err := pool.Acquire(context.Background(), "host-a"); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := pool.Acquire(context.Background(), "host-a"); err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := pool.Acquire(ctx, "host-a"); err == nil {
		t.Fatal("expected third acquire to fail, but it succeeded")
	}

	pool.Release("host-a")
	if err := pool.Acquire(context.Background(), "host-a"); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}

	pool.Release("host-a")
	pool.Release("host-a")
}

func TestHostSemaphore_MultipleHosts(t *testing.T) {
	pool := newTestPool(1)

	if err := pool.Acquire(context.Background(), "host-a"); err != nil {
		t.Fatalf("host-a acquire failed: %v", err)
	}
	if err := pool.Acquire(context.Background(), "host-b"); err != nil {
		t.Fatalf("host-b acquire failed: %v", err)
	}
	if pool.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", pool.Len())
	}

	pool.Release("host-a")
	pool.Release("host-b")
	pool.Release("unknown-host") // logged, not a panic
}

func TestHostSemaphore_ConcurrentAcquireRelease(t *testing.T) {
	pool := newTestPool(5)
	host := "concurrent.com"
	const goroutines = 50

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			if err := pool.Acquire(context.Background(), host); err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			pool.Release(host)
		}()
	}

	wg.Wait()
	if peak.Load() > 5 {
		t.Errorf("per-host limit exceeded: peak %d", peak.Load())
	}
}

func testGateConfig() *config.AppConfig {
	return &config.AppConfig{
		MaxRequests:             1,
		MaxRequestsPerHost:      1,
		SemaphoreAcquireTimeout: 50 * time.Millisecond,
	}
}

func TestGate_TimeoutWhenHostBusy(t *testing.T) {
	gate := NewGate(testGateConfig(), testLogger())

	release, err := gate.Acquire(context.Background(), "www.fcf.cat")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	_, err = gate.Acquire(context.Background(), "www.fcf.cat")
	if !errors.Is(err, utils.ErrSemaphoreTimeout) {
		t.Fatalf("expected ErrSemaphoreTimeout, got %v", err)
	}

	release()
	release() // second call is a no-op

	release, err = gate.Acquire(context.Background(), "www.fcf.cat")
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	release()
}

func TestGate_GlobalLimitSpansHosts(t *testing.T) {
	cfg := testGateConfig()
	cfg.MaxRequestsPerHost = 4
	gate := NewGate(cfg, testLogger())

	release, err := gate.Acquire(context.Background(), "a.example")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	if _, err := gate.Acquire(context.Background(), "b.example"); !errors.Is(err, utils.ErrSemaphoreTimeout) {
		t.Fatalf("expected global limit to block another host, got %v", err)
	}
	// The failed global acquire must have returned its host permit
	if err := gate.hosts.Acquire(context.Background(), "b.example"); err != nil {
		t.Fatalf("host permit leaked: %v", err)
	}
	gate.hosts.Release("b.example")
}

func TestGate_AppliesHostDelay(t *testing.T) {
	cfg := testGateConfig()
	cfg.DefaultDelayPerHost = 80 * time.Millisecond
	gate := NewGate(cfg, testLogger())

	release, err := gate.Acquire(context.Background(), "www.fcf.cat")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	release()

	start := time.Now()
	release, err = gate.Acquire(context.Background(), "www.fcf.cat")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	release()
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second request was not delayed: %v", elapsed)
	}
}

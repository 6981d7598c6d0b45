package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/Sriram-PR/fcf-scraper/pkg/config"
	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

// HostSemaphorePool manages per-host semaphores limiting concurrent requests to each host.
type HostSemaphorePool struct {
	sems  map[string]*semaphore.Weighted
	mu    sync.Mutex
	limit int64
	log   *logrus.Entry
}

// NewHostSemaphorePool creates a new pool with the given per-host concurrency limit.
func NewHostSemaphorePool(maxPerHost int, log *logrus.Entry) *HostSemaphorePool {
	limit := int64(maxPerHost)
	if limit <= 0 {
		limit = 2
		log.Warnf("max_requests_per_host invalid or zero, defaulting to %d", limit)
	}
	return &HostSemaphorePool{
		sems:  make(map[string]*semaphore.Weighted),
		limit: limit,
		log:   log,
	}
}

func (p *HostSemaphorePool) get(host string) *semaphore.Weighted {
	p.mu.Lock()
	defer p.mu.Unlock()
	sem, ok := p.sems[host]
	if !ok {
		sem = semaphore.NewWeighted(p.limit)
		p.sems[host] = sem
		p.log.WithFields(logrus.Fields{"host": host, "limit": p.limit}).Debug("Created new host semaphore")
	}
	return sem
}

// Acquire blocks until a permit for host is available or ctx is done.
func (p *HostSemaphorePool) Acquire(ctx context.Context, host string) error {
	return p.get(host).Acquire(ctx, 1)
}

// Release releases one permit for the given host.
func (p *HostSemaphorePool) Release(host string) {
	p.mu.Lock()
	sem, ok := p.sems[host]
	p.mu.Unlock()
	if !ok {
		p.log.Errorf("hostsemaphore: Release called for unknown host: %s", host)
		return
	}
	sem.Release(1)
}

// Len returns the current number of tracked hosts.
func (p *HostSemaphorePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sems)
}

// Gate bundles the global request limit, the per-host limit and the politeness delay.
// Every outgoing request (pages and robots.txt) passes through the same Gate.
type Gate struct {
	global         *semaphore.Weighted
	hosts          *HostSemaphorePool
	limiter        *RateLimiter
	delay          time.Duration
	acquireTimeout time.Duration
	log            *logrus.Entry
}

// NewGate builds a Gate from max_requests, max_requests_per_host and default_delay_per_host
func NewGate(cfg *config.AppConfig, log *logrus.Entry) *Gate {
	return &Gate{
		global:         semaphore.NewWeighted(int64(cfg.MaxRequests)),
		hosts:          NewHostSemaphorePool(cfg.MaxRequestsPerHost, log),
		limiter:        NewRateLimiter(cfg.DefaultDelayPerHost, log),
		delay:          cfg.DefaultDelayPerHost,
		acquireTimeout: cfg.SemaphoreAcquireTimeout,
		log:            log,
	}
}

// Acquire takes a host permit then a global permit, each bounded by
// semaphore_acquire_timeout, then waits out the host delay.
// The returned release must be called once the request attempt is over.
func (g *Gate) Acquire(ctx context.Context, host string) (release func(), err error) {
	if err := g.acquireWithTimeout(ctx, func(c context.Context) error { return g.hosts.Acquire(c, host) }); err != nil {
		return nil, fmt.Errorf("%w: host %s: %w", utils.ErrSemaphoreTimeout, host, err)
	}
	if err := g.acquireWithTimeout(ctx, func(c context.Context) error { return g.global.Acquire(c, 1) }); err != nil {
		g.hosts.Release(host)
		return nil, fmt.Errorf("%w: global: %w", utils.ErrSemaphoreTimeout, err)
	}

	g.limiter.ApplyDelay(ctx, host, g.delay)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.limiter.UpdateLastRequestTime(host)
			g.global.Release(1)
			g.hosts.Release(host)
		})
	}, nil
}

func (g *Gate) acquireWithTimeout(ctx context.Context, acquire func(context.Context) error) error {
	if g.acquireTimeout <= 0 {
		return acquire(ctx)
	}
	c, cancel := context.WithTimeout(ctx, g.acquireTimeout)
	defer cancel()
	return acquire(c)
}

// Hosts returns the number of hosts the gate has seen
func (g *Gate) Hosts() int {
	return g.hosts.Len()
}

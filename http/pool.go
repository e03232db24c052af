package http

import (
	"context"
	"sync"

	"github.com/fwojciec/docscrape"
	"golang.org/x/sync/semaphore"
)

// PoolStats describes connection slot usage.
type PoolStats struct {
	Active        int
	ActivePerHost map[string]int
	PeakTotal     int
	PeakPerHost   int
}

// Pool bounds concurrent requests globally and per host. A request must
// hold one slot of each before it is sent.
type Pool struct {
	maxTotal   int64
	maxPerHost int64
	global     *semaphore.Weighted

	mu          sync.Mutex
	hosts       map[string]*semaphore.Weighted
	active      map[string]int
	total       int
	peakTotal   int
	peakPerHost int
}

// NewPool creates a Pool with maxTotal slots overall and maxPerHost
// slots for any single host.
func NewPool(maxTotal, maxPerHost int) *Pool {
	if maxTotal <= 0 {
		maxTotal = 1
	}
	if maxPerHost <= 0 || maxPerHost > maxTotal {
		maxPerHost = maxTotal
	}
	return &Pool{
		maxTotal:   int64(maxTotal),
		maxPerHost: int64(maxPerHost),
		global:     semaphore.NewWeighted(int64(maxTotal)),
		hosts:      make(map[string]*semaphore.Weighted),
		active:     make(map[string]int),
	}
}

// Acquire blocks until a slot for host is free. The returned release
// function must be called exactly once; calling it more than once is a
// no-op. The host slot is taken first so that a busy host cannot hold
// global slots while it waits.
func (p *Pool) Acquire(ctx context.Context, host string) (release func(), err error) {
	hostSem := p.hostSemaphore(host)
	if err := hostSem.Acquire(ctx, 1); err != nil {
		return nil, docscrape.Wrap(docscrape.ECANCELED, err, "waiting for connection slot")
	}
	if err := p.global.Acquire(ctx, 1); err != nil {
		hostSem.Release(1)
		return nil, docscrape.Wrap(docscrape.ECANCELED, err, "waiting for connection slot")
	}

	p.mu.Lock()
	p.active[host]++
	p.total++
	p.peakTotal = max(p.peakTotal, p.total)
	p.peakPerHost = max(p.peakPerHost, p.active[host])
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.active[host]--
			if p.active[host] == 0 {
				delete(p.active, host)
			}
			p.total--
			p.mu.Unlock()

			p.global.Release(1)
			hostSem.Release(1)
		})
	}, nil
}

// Stats returns current and peak slot usage.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	perHost := make(map[string]int, len(p.active))
	for h, n := range p.active {
		perHost[h] = n
	}
	return PoolStats{
		Active:        p.total,
		ActivePerHost: perHost,
		PeakTotal:     p.peakTotal,
		PeakPerHost:   p.peakPerHost,
	}
}

func (p *Pool) hostSemaphore(host string) *semaphore.Weighted {
	p.mu.Lock()
	defer p.mu.Unlock()

	sem, ok := p.hosts[host]
	if !ok {
		sem = semaphore.NewWeighted(p.maxPerHost)
		p.hosts[host] = sem
	}
	return sem
}

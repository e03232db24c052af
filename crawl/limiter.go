package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/docscrape"
	"golang.org/x/time/rate"
)

var _ docscrape.RateLimiter = (*Limiter)(nil)

// DefaultSlowdownFactor is the fraction of the normal rate a host is
// allowed while cooling down after a 429 response.
const DefaultSlowdownFactor = 0.25

// Limiter is a token bucket shared by all workers. Tokens refill at rps
// up to burst. Waiters are served in arrival order: every Acquire takes a
// reservation on the bucket, and reservations are granted sequentially.
//
// Hosts that answered 429 get an additional, slower bucket for a
// cooldown period; requests to such a host must pass both buckets.
type Limiter struct {
	bucket *rate.Limiter
	rps    float64
	burst  int
	factor float64
	now    func() time.Time

	mu       sync.Mutex
	cooldown map[string]*hostCooldown
}

type hostCooldown struct {
	limiter *rate.Limiter
	until   time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithSlowdownFactor sets the fraction of the rate allowed to a host
// during a cooldown. Values outside (0, 1] are ignored.
func WithSlowdownFactor(f float64) LimiterOption {
	return func(l *Limiter) {
		if f > 0 && f <= 1 {
			l.factor = f
		}
	}
}

// NewLimiter creates a Limiter admitting rps tokens per second with a
// capacity of burst tokens. The bucket starts full.
func NewLimiter(rps float64, burst int, opts ...LimiterOption) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	l := &Limiter{
		bucket:   rate.NewLimiter(rate.Limit(rps), burst),
		rps:      rps,
		burst:    burst,
		factor:   DefaultSlowdownFactor,
		now:      time.Now,
		cooldown: make(map[string]*hostCooldown),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until cost tokens are available, then debits them.
// A cost above the bucket capacity can never be satisfied and returns
// EINVALID immediately. Cancellation returns ECANCELED.
func (l *Limiter) Acquire(ctx context.Context, host string, cost int) error {
	if cost <= 0 {
		cost = 1
	}
	if cost > l.burst {
		return docscrape.Errorf(docscrape.EINVALID, "cost %d exceeds limiter capacity %d", cost, l.burst)
	}

	if slow := l.hostLimiter(host); slow != nil {
		if err := slow.WaitN(ctx, cost); err != nil {
			return l.canceled(ctx, err)
		}
	}
	if err := l.bucket.WaitN(ctx, cost); err != nil {
		return l.canceled(ctx, err)
	}
	return nil
}

// Slowdown puts host on a reduced rate for period. Calling it again for
// a host that is already cooling down extends the period.
func (l *Limiter) Slowdown(host string, period time.Duration) {
	if host == "" || period <= 0 {
		return
	}
	until := l.now().Add(period)

	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.cooldown[host]; ok {
		if until.After(c.until) {
			c.until = until
		}
		return
	}

	slow := rate.NewLimiter(rate.Limit(l.rps*l.factor), l.burst)
	// Start empty so the cooldown takes effect immediately.
	slow.ReserveN(l.now(), l.burst)
	l.cooldown[host] = &hostCooldown{limiter: slow, until: until}
}

// CoolingDown reports whether host is currently slowed down.
func (l *Limiter) CoolingDown(host string) bool {
	return l.hostLimiter(host) != nil
}

// Tokens returns the number of tokens currently in the shared bucket.
func (l *Limiter) Tokens() float64 {
	return l.bucket.Tokens()
}

func (l *Limiter) hostLimiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.cooldown[host]
	if !ok {
		return nil
	}
	if !l.now().Before(c.until) {
		delete(l.cooldown, host)
		return nil
	}
	return c.limiter
}

func (l *Limiter) canceled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return docscrape.Wrap(docscrape.ECANCELED, err, "rate limit wait")
}

package runner

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer controls the wait the runner inserts between task executions of one
// user. A deferred jump still goes through the pacer; an immediate jump
// bypasses it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NopPacer inserts no wait.
type NopPacer struct{}

func (NopPacer) Wait(context.Context) error { return nil }

// ConstantPacer waits a fixed duration between tasks.
type ConstantPacer struct {
	D time.Duration
}

func (p ConstantPacer) Wait(ctx context.Context) error {
	if p.D <= 0 {
		return nil
	}
	return sleep(ctx, p.D)
}

// UniformPacer waits a uniformly random duration in [Min, Max].
type UniformPacer struct {
	Min, Max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformPacer creates a uniform pacer; a nil rng seeds one from the
// clock.
func NewUniformPacer(min, max time.Duration, rng *rand.Rand) *UniformPacer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &UniformPacer{Min: min, Max: max, rng: rng}
}

func (p *UniformPacer) Wait(ctx context.Context) error {
	d := p.Min
	if span := p.Max - p.Min; span > 0 {
		p.mu.Lock()
		d += time.Duration(p.rng.Int63n(int64(span) + 1))
		p.mu.Unlock()
	}
	return sleep(ctx, d)
}

// ThroughputPacer holds each user to a target task rate using a token
// bucket.
type ThroughputPacer struct {
	limiter *rate.Limiter
}

// NewThroughputPacer creates a pacer allowing perSecond task executions per
// second.
func NewThroughputPacer(perSecond float64) *ThroughputPacer {
	return &ThroughputPacer{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (p *ThroughputPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

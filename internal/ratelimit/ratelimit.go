package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Jitter draws randomized pauses in [min, max). It keeps no state between
// draws, so one value can be shared by concurrent scrapes.
type Jitter struct {
	minDelay time.Duration
	maxDelay time.Duration
	int63n   func(n int64) int64
}

func NewJitter(minDelay, maxDelay time.Duration) *Jitter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Jitter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		int63n:   rand.Int63n,
	}
}

// WithSource replaces the random source; used by tests to pin the draw.
func (j *Jitter) WithSource(int63n func(n int64) int64) *Jitter {
	return &Jitter{minDelay: j.minDelay, maxDelay: j.maxDelay, int63n: int63n}
}

func (j *Jitter) Delay() time.Duration {
	if j.minDelay == j.maxDelay {
		return j.minDelay
	}

	delta := j.maxDelay - j.minDelay
	return j.minDelay + time.Duration(j.int63n(int64(delta)))
}

func (j *Jitter) Bounds() (time.Duration, time.Duration) {
	return j.minDelay, j.maxDelay
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

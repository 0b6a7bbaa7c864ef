package web

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// limiters holds one token bucket per source.
// Each bucket has burst 1, so requests to an origin are evenly spaced.
type limiters struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func newLimiters() *limiters {
	return &limiters{buckets: make(map[string]*rate.Limiter)}
}

// get returns the source's limiter, creating it on first use.
// A changed RateLimitRPS is applied to the existing bucket.
func (l *limiters) get(src domain.Source) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit := rate.Limit(src.EffectiveRateLimit())
	b, ok := l.buckets[src.ID]
	if !ok {
		b = rate.NewLimiter(limit, 1)
		l.buckets[src.ID] = b
	} else if b.Limit() != limit {
		b.SetLimit(limit)
	}
	return b
}

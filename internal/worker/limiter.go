package worker

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/ppiankov/crowdgen/internal/pipeline"
)

// Limiter throttles events per key, such as progress lines per domain
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter allows eventsPerSecond per key with the given burst
func NewLimiter(eventsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(eventsPerSecond),
		defaultBurst: burst,
	}
}

// Allow reports whether an event for key may happen now
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = limiter

	return limiter
}

// Progress returns a progress callback that prints through emit at most at
// the limiter's rate per domain. The final event of a domain always passes.
func (l *Limiter) Progress(emit func(domain string, done, total int)) pipeline.ProgressFunc {
	return func(domain string, done, total int) {
		if done == total || l.Allow(domain) {
			emit(domain, done, total)
		}
	}
}

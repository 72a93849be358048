package fetcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter на каждый хост: не больше maxConcurrent запросов одновременно
// и не чаще rpm запросов в минуту
type RateLimiter struct {
	maxConcurrent int
	rpm           int
	hosts         map[string]*hostLimiter
	mu            sync.Mutex
}

type hostLimiter struct {
	sem     chan struct{}
	limiter *rate.Limiter
}

func NewRateLimiter(maxConcurrent, rpm int) *RateLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &RateLimiter{
		maxConcurrent: maxConcurrent,
		rpm:           rpm,
		hosts:         make(map[string]*hostLimiter),
	}
}

func (rl *RateLimiter) forHost(host string) *hostLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.hosts[host]
	if !exists {
		limit := rate.Inf
		if rl.rpm > 0 {
			limit = rate.Every(time.Minute / time.Duration(rl.rpm))
		}
		limiter = &hostLimiter{
			sem:     make(chan struct{}, rl.maxConcurrent),
			limiter: rate.NewLimiter(limit, rl.maxConcurrent),
		}
		rl.hosts[host] = limiter
	}
	return limiter
}

// Acquire ждёт слот и токен; release обязательно вызвать после запроса
func (rl *RateLimiter) Acquire(ctx context.Context, host string) (release func(), err error) {
	limiter := rl.forHost(host)

	select {
	case limiter.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := limiter.limiter.Wait(ctx); err != nil {
		<-limiter.sem
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(func() { <-limiter.sem }) }, nil
}

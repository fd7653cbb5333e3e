package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMin int // per-IP request budget per minute
	Burst          int // burst capacity
	IdleEviction   time.Duration
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerMin: 120,
		Burst:          30,
		IdleEviction:   10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-IP token-bucket rate limiting
type RateLimiter struct {
	config  Config
	clients map[string]*clientLimiter
	mutex   sync.Mutex
}

// NewRateLimiter creates a new in-memory rate limiter
func NewRateLimiter(config Config) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		clients: make(map[string]*clientLimiter),
	}
	go rl.evictIdle()
	return rl
}

// Allow reports whether the given IP may make a request now
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cl, ok := rl.clients[ip]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.config.RequestsPerMin)/60.0), rl.config.Burst),
		}
		rl.clients[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

// evictIdle removes limiters that have not been used recently
func (rl *RateLimiter) evictIdle() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mutex.Lock()
		for ip, cl := range rl.clients {
			if time.Since(cl.lastSeen) > rl.config.IdleEviction {
				delete(rl.clients, ip)
			}
		}
		rl.mutex.Unlock()
	}
}

// Package ratelimit throttles MCP tool calls with per-key token buckets.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter hands out tokens per key. Every key starts with a full bucket of
// burst tokens which refills at rate tokens per second. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   int
	nowFunc func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewLimiter returns a limiter refilling at rate tokens/sec up to burst.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow consumes one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key, l.nowFunc())
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Tokens reports how many whole tokens key currently holds.
func (l *Limiter) Tokens(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.refill(key, l.nowFunc()).tokens)
}

// refill tops up key's bucket for the time elapsed since it was last seen.
// Callers hold l.mu.
func (l *Limiter) refill(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), last: now}
		l.buckets[key] = b
		return b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.last = now
	}
	return b
}

// Tool names exposed by the MCP server.
const (
	ToolSimulate = "schedsim_simulate"
	ToolCompare  = "schedsim_compare"
	ToolChart    = "schedsim_chart"
	ToolHistory  = "schedsim_history"
)

// ToolLimiters maps tool names to their limiter.
type ToolLimiters map[string]*Limiter

// NewToolLimiters returns the default per-tool limits. Simulations are cheap
// and allowed often; comparisons run four schedulers and charts render SVG,
// so both get a smaller allowance.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		ToolSimulate: NewLimiter(1.0, 10),      // 60/minute, burst 10
		ToolCompare:  NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		ToolChart:    NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		ToolHistory:  NewLimiter(1.0, 10),      // 60/minute, burst 10
	}
}

// CheckLimit returns an error when toolName has run out of tokens.
// Tools without a limiter are never throttled.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if !limiter.Allow(toolName) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}
	return nil
}

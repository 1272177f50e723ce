package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock freezes the limiter clock and returns a function that moves it.
func fakeClock(l *Limiter) (advance func(time.Duration)) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

func TestAllow(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		burst int
		// each step waits, then calls Allow
		steps []step
	}{
		{
			name: "within burst", rate: 1, burst: 3,
			steps: []step{{0, true}, {0, true}, {0, true}},
		},
		{
			name: "exceeds burst", rate: 1, burst: 2,
			steps: []step{{0, true}, {0, true}, {0, false}},
		},
		{
			name: "refill after wait", rate: 10, burst: 2,
			steps: []step{{0, true}, {0, true}, {0, false}, {200 * time.Millisecond, true}},
		},
		{
			name: "refill capped at burst", rate: 100, burst: 2,
			steps: []step{{0, true}, {0, true}, {10 * time.Second, true}, {0, true}, {0, false}},
		},
		{
			name: "partial refill is not a token", rate: 2, burst: 1,
			steps: []step{{0, true}, {250 * time.Millisecond, false}, {250 * time.Millisecond, true}},
		},
		{
			name: "zero rate never refills", rate: 0, burst: 1,
			steps: []step{{0, true}, {time.Hour, false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLimiter(tt.rate, tt.burst)
			advance := fakeClock(l)
			for i, s := range tt.steps {
				advance(s.wait)
				if got := l.Allow("k"); got != s.want {
					t.Fatalf("step %d: Allow() = %v, want %v", i, got, s.want)
				}
			}
		})
	}
}

type step struct {
	wait time.Duration
	want bool
}

func TestAllow_IndependentKeys(t *testing.T) {
	l := NewLimiter(1.0, 1)
	fakeClock(l)

	l.Allow("a")
	if l.Allow("a") {
		t.Error("key a should be exhausted")
	}
	if !l.Allow("b") {
		t.Error("key b should have its own bucket")
	}
}

func TestTokens(t *testing.T) {
	l := NewLimiter(1.0, 3)
	advance := fakeClock(l)

	if got := l.Tokens("k"); got != 3 {
		t.Errorf("fresh Tokens() = %d, want 3", got)
	}
	l.Allow("k")
	l.Allow("k")
	if got := l.Tokens("k"); got != 1 {
		t.Errorf("Tokens() after two calls = %d, want 1", got)
	}
	advance(time.Second)
	if got := l.Tokens("k"); got != 2 {
		t.Errorf("Tokens() after refill = %d, want 2", got)
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := NewLimiter(0, 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed %d requests, want exactly the burst of 50", allowed)
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()

	tests := []struct {
		tool  string
		burst int
	}{
		{ToolSimulate, 10},
		{ToolCompare, 5},
		{ToolChart, 3},
		{ToolHistory, 10},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			limiter, ok := limiters[tt.tool]
			if !ok {
				t.Fatalf("missing limiter for %s", tt.tool)
			}
			if limiter.burst != tt.burst {
				t.Errorf("burst = %d, want %d", limiter.burst, tt.burst)
			}
		})
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := ToolLimiters{ToolChart: NewLimiter(0, 1)}

	if err := CheckLimit(limiters, ToolChart); err != nil {
		t.Errorf("first call error = %v", err)
	}
	if err := CheckLimit(limiters, ToolChart); err == nil {
		t.Error("expected rate limit error after burst exhaustion")
	}
	if err := CheckLimit(limiters, "unknown_tool"); err != nil {
		t.Errorf("unknown tool error = %v, want nil", err)
	}
}

package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, d time.Duration) (*Limiter, *clock) {
	c := &clock{t: time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)}
	l := New(limit, d)
	l.now = c.now
	return l, c
}

func TestLimiter_Window(t *testing.T) {
	l, c := newTestLimiter(2, time.Minute)

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("k") {
		t.Error("third request should be limited")
	}
	if got := l.RetryAfter("k"); got != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", got)
	}
	if !l.Allow("other") {
		t.Error("keys are independent")
	}

	c.advance(time.Minute + time.Second)
	if !l.Allow("k") {
		t.Error("window should reset after expiry")
	}
	if got := l.RetryAfter("k"); got != 0 {
		t.Errorf("RetryAfter = %v, want 0", got)
	}
}

func TestLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("should be limited")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("Reset should clear the window")
	}
}

func TestLimiter_SweepsExpired(t *testing.T) {
	l, c := newTestLimiter(1, time.Minute)
	for _, k := range []string{"a", "b", "c"} {
		l.Allow(k)
	}
	c.advance(2 * time.Minute)
	l.Allow("d")
	if len(l.windows) != 1 {
		t.Errorf("windows = %d, want 1 after sweep", len(l.windows))
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded", "203.0.113.5, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.5"},
		{"real ip", "", " 198.51.100.7 ", "10.0.0.2:1234", "198.51.100.7"},
		{"remote with port", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote bare", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/auth/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAttemptLimiter(t *testing.T) {
	a := NewAttemptLimiterWithConfig(100, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/auth/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _, _ := a.Check(r, " Ada@Example.com "); !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	ok, reason, retry := a.Check(r, "ada@example.com")
	if ok || reason == "" || retry <= 0 {
		t.Errorf("third attempt: ok=%v reason=%q retry=%v", ok, reason, retry)
	}

	a.ResetEmail("ADA@example.com")
	if ok, _, _ := a.Check(r, "ada@example.com"); !ok {
		t.Error("ResetEmail should clear the per-email window")
	}
}

func TestAttemptLimiter_IP(t *testing.T) {
	a := NewAttemptLimiterWithConfig(1, time.Minute, 100, time.Minute)
	r := httptest.NewRequest("POST", "/auth/login", nil)
	a.Check(r, "a@example.com")
	if ok, _, _ := a.Check(r, "b@example.com"); ok {
		t.Error("IP limit should apply across emails")
	}
}

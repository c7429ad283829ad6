package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"direct with port", "192.0.2.10:54321", "", "192.0.2.10"},
		{"direct without port", "192.0.2.10", "", "192.0.2.10"},
		{"behind proxy", "127.0.0.1:8080", "203.0.113.7", "203.0.113.7"},
		{"proxy chain keeps first hop", "127.0.0.1:8080", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"forwarded with spaces", "127.0.0.1:8080", " 203.0.113.7 ", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !rl.Allow("203.0.113.7") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if rl.Allow("203.0.113.7") {
		t.Error("attempt 6 should be denied")
	}

	// Another client has its own budget.
	if !rl.Allow("203.0.113.8") {
		t.Error("different client should be allowed")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(2, 20*time.Millisecond)

	rl.Allow("c")
	rl.Allow("c")
	if rl.Allow("c") {
		t.Fatal("third attempt in window should be denied")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.Allow("c") {
		t.Error("attempt after window expiry should be allowed")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, 10*time.Millisecond)
	rl.Allow("stale")

	time.Sleep(15 * time.Millisecond)
	rl.Cleanup()

	rl.mu.Lock()
	_, ok := rl.buckets["stale"]
	rl.mu.Unlock()
	if ok {
		t.Error("expired bucket should be removed by Cleanup")
	}
}

func TestLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("192.0.2.1:1000"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	w := send("192.0.2.1:1000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("over-limit status = %d, want 429", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("over-limit Content-Type = %q, want application/json", ct)
	}
	if !strings.Contains(w.Body.String(), "too many attempts") {
		t.Errorf("over-limit body = %q", w.Body.String())
	}

	// A different client is unaffected by the first one's budget.
	if w := send("192.0.2.2:1000"); w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", w.Code)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestLimiter(burst int) *RateLimiter {
	return NewRateLimiter(RateLimiterConfig{
		PublicRate:      rate.Limit(0.001), // テスト中の補充を事実上止める
		PublicBurst:     burst,
		CleanupInterval: time.Hour,
	})
}

// TestPublicMiddleware_AllowsWithinBurst はバースト内のリクエストが
// 通過することを検証する。
func TestPublicMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := newTestLimiter(3)
	defer rl.Stop()

	handler := rl.PublicMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/signup", nil)
		req.RemoteAddr = "203.0.113.10:52000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

// TestPublicMiddleware_RejectsOverBurst は超過リクエストが429と
// Retry-Afterで拒否されることを検証する。
func TestPublicMiddleware_RejectsOverBurst(t *testing.T) {
	rl := newTestLimiter(1)
	defer rl.Stop()

	handler := rl.PublicMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	req.RemoteAddr = "203.0.113.10:52000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response should carry Retry-After")
	}
}

// TestPublicMiddleware_PerIPIsolation は別IPが別のバケットを持つことを検証する。
func TestPublicMiddleware_PerIPIsolation(t *testing.T) {
	rl := newTestLimiter(1)
	defer rl.Stop()

	handler := rl.PublicMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/signup", nil)
	first.RemoteAddr = "203.0.113.10:52000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first IP should pass, got %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/signup", nil)
	second.RemoteAddr = "203.0.113.99:52000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Errorf("different IP should have its own bucket, got %d", rec.Code)
	}
}

// TestClientIP はX-Forwarded-Forの先頭がRemoteAddrより優先される
// ことを検証する。
func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{"forwarded single", "198.51.100.7", "10.0.0.1:80", "198.51.100.7"},
		{"forwarded chain", "198.51.100.7, 10.0.0.2", "10.0.0.1:80", "198.51.100.7"},
		{"no header", "", "203.0.113.10:52000", "203.0.113.10"},
		{"no port", "", "203.0.113.10", "203.0.113.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/citypulse/trafficguide/internal/ratelimit"
)

func TestRedisRateLimiterPerMinute(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	mgr, err := ratelimit.NewManager("redis://"+s.Addr(), 5)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	mw := RedisRateLimiter(mgr)(h)

	var last int
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("POST", "/v1/routes/analyze", nil)
		req.RemoteAddr = "10.1.2.3:55000"
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exceeding limit, got %d", last)
	}

	// A different client has its own window.
	req := httptest.NewRequest("POST", "/v1/routes/analyze", nil)
	req.RemoteAddr = "10.9.9.9:55000"
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for fresh client, got %d", rec.Code)
	}

	// Fresh minute window resets the original client.
	s.FastForward(time.Minute)
	s.FlushAll()
	req = httptest.NewRequest("POST", "/v1/routes/analyze", nil)
	req.RemoteAddr = "10.1.2.3:55000"
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after window reset, got %d", rec.Code)
	}
}

func TestRedisRateLimiterNilManager(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	mw := RedisRateLimiter(nil)(h)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/rules", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through with nil manager, got %d", rec.Code)
	}
}

func TestUsageAccounting(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	mgr, err := ratelimit.NewManager("redis://"+s.Addr(), 100)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	mw := RedisRateLimiter(mgr)(h)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/v1/areas/gachibowli", nil)
		req.RemoteAddr = "10.0.0.1:40000"
		mw.ServeHTTP(httptest.NewRecorder(), req)
	}

	used, err := mgr.Usage(context.Background(), "10.0.0.1", time.Now().UTC())
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if used != 3 {
		t.Errorf("Usage = %d, want 3", used)
	}
}

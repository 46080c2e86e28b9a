package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitExhaustsBurst(t *testing.T) {
	mw := RateLimit(1, 2)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/basket/holds", nil)
		req.Header.Set("X-Real-Ip", "10.0.0.1")
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected status %d, got %d", i, http.StatusOK, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/basket/holds", nil)
	req.Header.Set("X-Real-Ip", "10.0.0.1")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on throttled response")
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	mw := RateLimit(1, 1)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/basket/holds", nil)
	req.Header.Set("X-Real-Ip", "10.0.0.1")
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, first.Code)
	}

	// A different client has its own bucket.
	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/basket/holds", nil)
	req.Header.Set("X-Real-Ip", "10.0.0.2")
	handler.ServeHTTP(second, req)
	if second.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, second.Code)
	}
}

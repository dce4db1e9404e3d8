package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_ExhaustsBucket(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, Limit: 3, Window: time.Hour})

	for i := range 3 {
		assert.True(t, l.Allow("client-a"), "request %d", i)
	}
	assert.False(t, l.Allow("client-a"))
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, Limit: 1, Window: time.Hour})

	assert.True(t, l.Allow("client-a"))
	assert.False(t, l.Allow("client-a"))
	assert.True(t, l.Allow("client-b"))
}

func TestAllow_RefillsOverTime(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, Limit: 100, Window: time.Second})

	for range 100 {
		l.Allow("client-a")
	}
	assert.False(t, l.Allow("client-a"))

	time.Sleep(50 * time.Millisecond)
	assert.True(t, l.Allow("client-a"), "tokens accrue within the window")
}

func TestAllow_DisabledLimiterAlwaysAllows(t *testing.T) {
	l := NewLimiter(Config{Enabled: false, Limit: 1, Window: time.Hour})

	for range 10 {
		assert.True(t, l.Allow("client-a"))
	}
}

func TestMiddleware_RejectsOverLimit(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, Limit: 2, Window: time.Hour})
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		req.RemoteAddr = "10.0.0.1:4242"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestMiddleware_KeysOnForwardedFor(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, Limit: 1, Window: time.Hour})
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		req.RemoteAddr = "10.0.0.1:4242"
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7, 10.0.0.1"), "first hop identifies the client")
	assert.Equal(t, http.StatusOK, send("203.0.113.8"))
}

func TestClientAddr_FallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:9999"
	assert.Equal(t, "192.0.2.1", clientAddr(req))

	req.RemoteAddr = "unparseable"
	assert.Equal(t, "unparseable", clientAddr(req))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 60, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
}

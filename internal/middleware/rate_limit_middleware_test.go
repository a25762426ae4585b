package middleware

import (
	"LykkeLoopAPI/internal/config"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestRateLimitMiddleware(t *testing.T, cidrs ...string) *RateLimitMiddleware {
	cfg := &config.AppConfig{WSRateLimitSeconds: 60, TrustedProxyCIDRs: cidrs}
	limiter := config.NewRateLimiter(cfg)
	t.Cleanup(limiter.Stop)
	return NewRateLimitMiddleware(limiter, cfg)
}

func TestGetIP(t *testing.T) {
	m := newTestRateLimitMiddleware(t, "10.0.0.0/8")

	cases := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{"untrusted remote ignores headers", "198.51.100.20:1234", "203.0.113.1", "", "198.51.100.20"},
		{"trusted proxy uses right-most untrusted", "10.0.0.1:1234", "1.1.1.1, 2.2.2.2, 198.51.100.10", "", "198.51.100.10"},
		{"trusted proxy skips trusted chain", "10.0.0.1:1234", "203.0.113.10, 10.1.1.1", "", "203.0.113.10"},
		{"trusted proxy falls back to X-Real-IP", "10.0.0.1:1234", "", "198.51.100.11", "198.51.100.11"},
		{"ipv6 remote", "[2001:db8::1]:443", "", "", "2001:db8::1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			assert.Equal(t, tc.want, m.getIP(req))
		})
	}
}

func TestThrottleRejectsBurst(t *testing.T) {
	m := newTestRateLimitMiddleware(t)
	handler := m.Throttle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var codes []int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = "198.51.100.7:5000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{204, 204, 204, 204, 204, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = "198.51.100.8:5000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

package middleware

import (
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/helper"
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// RateLimitMiddleware throttles connection attempts per client IP.
type RateLimitMiddleware struct {
	limiter           *config.RateLimiter
	trustedProxyCIDRs []*net.IPNet
}

func NewRateLimitMiddleware(limiter *config.RateLimiter, cfg *config.AppConfig) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:           limiter,
		trustedProxyCIDRs: parseTrustedProxyCIDRs(cfg.TrustedProxyCIDRs),
	}
}

func (m *RateLimitMiddleware) Throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := m.getIP(r)

		allowed, retryAfter := m.limiter.Allow(ip)
		if !allowed {
			slog.Warn("Connection attempt throttled", "ip", ip, "retryAfter", retryAfter)
			helper.WriteError(w, helper.NewTooManyRequestsError("Too many connection attempts. Please try again later.", retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getIP(r *http.Request) string {
	remoteIP := parseIP(r.RemoteAddr)
	if remoteIP == nil {
		return r.RemoteAddr
	}

	if m.isTrustedProxy(remoteIP) {
		if forwardedIP := m.clientIPFromXForwardedFor(r.Header.Get("X-Forwarded-For"), remoteIP); forwardedIP != "" {
			return forwardedIP
		}

		if realIP := parseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); realIP != nil && !m.isTrustedProxy(realIP) {
			return realIP.String()
		}
	}

	return remoteIP.String()
}

func (m *RateLimitMiddleware) isTrustedProxy(ip net.IP) bool {
	for _, network := range m.trustedProxyCIDRs {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func parseTrustedProxyCIDRs(cidrs []string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			slog.Warn("Ignoring invalid trusted proxy CIDR", "cidr", cidr, "error", err)
			continue
		}
		out = append(out, network)
	}
	return out
}

// clientIPFromXForwardedFor walks the chain from the nearest hop and returns
// the first address that is not one of our proxies.
func (m *RateLimitMiddleware) clientIPFromXForwardedFor(xForwardedFor string, remoteIP net.IP) string {
	var chain []net.IP
	for _, part := range strings.Split(xForwardedFor, ",") {
		if ip := parseIP(strings.TrimSpace(part)); ip != nil {
			chain = append(chain, ip)
		}
	}
	if len(chain) == 0 {
		return ""
	}
	first := chain[0]
	chain = append(chain, remoteIP)

	for i := len(chain) - 1; i >= 0; i-- {
		if !m.isTrustedProxy(chain[i]) {
			return chain[i].String()
		}
	}
	return first.String()
}

func parseIP(addr string) net.IP {
	if addr == "" {
		return nil
	}

	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	return net.ParseIP(strings.Trim(host, "[]"))
}

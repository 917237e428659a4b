package session

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/FocuswithJustin/ClozeMark/internal/logging"
)

// SecurityConfig holds websocket security settings.
type SecurityConfig struct {
	// AllowedOrigins lists accepted Origin values. "*" allows all and
	// "*.example.com" allows subdomains. Empty means same host only.
	AllowedOrigins []string

	// MaxMessageRate is the maximum number of messages per second per session.
	MaxMessageRate int

	// MaxMessageSize is the maximum message size in bytes.
	MaxMessageSize int64
}

// DefaultSecurityConfig returns the default limits.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxMessageRate: 20,
		MaxMessageSize: 1 << 20,
	}
}

// isOriginAllowed checks origin against the allow-list. With an empty list
// only the request's own host is accepted.
func isOriginAllowed(origin, host string, allowedOrigins []string) bool {
	if len(allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, host)
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
		if strings.HasPrefix(allowed, "*.") && strings.HasSuffix(origin, allowed[1:]) {
			return true
		}
	}
	return false
}

// checkOrigin builds the upgrader's CheckOrigin. Requests without an Origin
// header come from non-browser clients and are accepted.
func checkOrigin(cfg SecurityConfig) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if isOriginAllowed(origin, r.Host, cfg.AllowedOrigins) {
			return true
		}
		logging.SecurityEvent("origin_rejected", "session", "origin", origin, "remote_addr", r.RemoteAddr)
		originRejections.Inc()
		return false
	}
}

// newLimiter allows bursts of twice the per-second rate.
func newLimiter(messagesPerSecond int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(messagesPerSecond), 2*messagesPerSecond)
}

// securityHeaders adds security headers to plain HTTP responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

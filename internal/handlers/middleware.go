package handlers

import (
	"context"
	"encoding/gob"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/askmatsya/bolt/internal/logger"
	"github.com/askmatsya/bolt/internal/metrics"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

// Register types for gob encoding (used by sessions)
func init() {
	gob.Register(FlashMessage{})
	gob.Register(FormValues{})
}

// LoggingMiddleware logs and measures each HTTP request
func LoggingMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	log := logger.Component("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			// Wrap ResponseWriter to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			m.RecordHTTPRequest(r.Method, routeLabel(r.URL.Path), ww.statusCode, duration)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.statusCode).
				Dur("duration", duration).
				Str("ip", clientIP(r)).
				Msg("HTTP Request")
		})
	}
}

// routeLabel keeps metric labels bounded: ids in paths are dropped.
func routeLabel(path string) string {
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 3)
	switch {
	case parts[0] == "":
		return "/"
	case (parts[0] == "api" || parts[0] == "admin") && len(parts) > 1:
		return "/" + parts[0] + "/" + parts[1]
	}
	return "/" + parts[0]
}

// Custom ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// SecurityHeadersMiddleware adds standard security headers
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		// Product images are hotlinked from stock photo hosts.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; script-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// CSRFExemptions lets the JSON API through the CSRF check and, when the
// server runs without TLS, tells gorilla/csrf not to insist on HTTPS
// referers. It must wrap the csrf.Protect handler.
func CSRFExemptions(plaintext bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if plaintext {
				r = csrf.PlaintextHTTPRequest(r)
			}
			if strings.HasPrefix(r.URL.Path, "/api/") {
				r = csrf.UnsafeSkipCheck(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter allows one request per client per window.
type RateLimiter struct {
	visitors sync.Map
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{
		window: window,
		now:    time.Now,
	}
}

// Run removes stale entries every minute until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup removes old entries to prevent memory leaks
func (rl *RateLimiter) cleanup() {
	now := rl.now()
	rl.visitors.Range(func(key, value any) bool {
		if now.Sub(value.(time.Time)) > rl.window {
			rl.visitors.Delete(key)
		}
		return true
	})
}

// Middleware enforces the rate limit
func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if lastSeen, ok := rl.visitors.Load(ip); ok {
			if rl.now().Sub(lastSeen.(time.Time)) < rl.window {
				logFor("http").Warn().Str("ip", ip).Msg("Rate limit exceeded")
				if strings.HasPrefix(r.URL.Path, "/api/") {
					writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
					return
				}
				http.Error(w, "Too Many Requests. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}

		rl.visitors.Store(ip, rl.now())
		next(w, r)
	}
}

// logFor returns an addressable component logger for one-off events.
func logFor(component string) *zerolog.Logger {
	l := logger.Component(component)
	return &l
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FlashMessage structure
type FlashMessage struct {
	Type    string
	Message string
}

// FormValues carries submitted form fields across a redirect.
type FormValues map[string]string

// GetFlash retrieves flash messages from the session
func GetFlash(session *sessions.Session) []FlashMessage {
	flashes := session.Flashes()
	var messages []FlashMessage
	for _, f := range flashes {
		if fm, ok := f.(FlashMessage); ok {
			messages = append(messages, fm)
		}
	}
	return messages
}

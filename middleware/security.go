package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Spark-Project-Pulse/backend/utils"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func newRequestID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(b)
}

// SecurityHeadersMiddleware sets the usual browser hardening headers. CORS is
// handled by the router (gorilla/handlers), not here.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	env := strings.ToLower(envOr("ENV", "development"))
	csp := envOr("SEC_CSP", "default-src 'none'; frame-ancestors 'none'; base-uri 'self';")
	hsts := envOr("SEC_HSTS", "false") == "true"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if env != "development" {
			h.Set("Content-Security-Policy", csp)
		}
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogMiddleware writes one line per completed request.
func RequestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		log.Printf("[http] %s %s %d %s", r.Method, r.URL.Path, sw.status, time.Since(start).Round(time.Millisecond))
	})
}

// RequestIDMiddleware echoes an inbound X-Request-ID or mints one, and puts it
// on the context so handlers and the panic logger can pick it up.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = newRequestID()
		}
		w.Header().Set("X-Request-ID", rid)
		ctx := context.WithValue(r.Context(), utils.RequestIDKey, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TimeoutMiddleware bounds how long a handler may hold the request context.
// Vote and badge recompute transactions must finish well inside this window.
func TimeoutMiddleware(next http.Handler) http.Handler {
	timeout := time.Duration(envInt("REQ_TIMEOUT_SEC", 10)) * time.Second
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RecoveryMiddleware turns a handler panic into a logged 500 instead of a
// dropped connection.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := r.Context().Value(utils.RequestIDKey).(string)
				log.Printf("[panic] request_id=%s %s %s: %v\n%s", rid, r.Method, r.URL.Path, rec, debug.Stack())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Internal server error", "request_id": rid})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// In-memory latency samples and a per-IP slow-request counter. Enough for a
// single instance; nothing here survives a restart.
var (
	latencyMu sync.Mutex
	latencies = make(map[string][]time.Duration)

	slowMu      sync.Mutex
	slowCounter = make(map[string]int)
)

// MetricsMiddleware keeps the last 100 latency samples per method+path and
// counts requests that exceed the slow threshold against the caller's IP.
func MetricsMiddleware(next http.Handler) http.Handler {
	slowAfter := time.Duration(envInt("METRIC_SLOW_MS", 800)) * time.Millisecond
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)

		key := r.Method + " " + r.URL.Path
		latencyMu.Lock()
		samples := latencies[key]
		if len(samples) >= 100 {
			samples = samples[1:]
		}
		latencies[key] = append(samples, elapsed)
		latencyMu.Unlock()

		if elapsed > slowAfter {
			slowMu.Lock()
			slowCounter[r.RemoteAddr]++
			slowMu.Unlock()
		}
	})
}

// SuspiciousActivityMiddleware rejects IPs that keep triggering slow requests,
// which in practice means someone hammering the heavy list endpoints.
func SuspiciousActivityMiddleware(next http.Handler) http.Handler {
	threshold := envInt("SUSPICIOUS_THRESHOLD", 10)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slowMu.Lock()
		count := slowCounter[r.RemoteAddr]
		slowMu.Unlock()
		if count >= threshold {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

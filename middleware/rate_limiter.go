package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Spark-Project-Pulse/backend/utils"
)

// In-memory rate limiting. Good enough for a single instance; the login
// lockout additionally uses Redis when configured so lockouts hold across
// instances.

// slidingWindow keeps per-key hit timestamps and drops anything older than
// the window on each touch.
type slidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	hits   map[string][]int64
}

func newSlidingWindow(window time.Duration) *slidingWindow {
	sw := &slidingWindow{window: window, hits: make(map[string][]int64)}
	go sw.pruneLoop()
	return sw
}

// touch records a hit and returns the count inside the window plus the oldest
// hit's expiry (for Retry-After).
func (sw *slidingWindow) touch(key string) (count int, oldestExpiry int64) {
	now := time.Now().UnixNano()
	cutoff := now - int64(sw.window)

	sw.mu.Lock()
	defer sw.mu.Unlock()

	kept := sw.hits[key][:0]
	for _, ts := range sw.hits[key] {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	sw.hits[key] = kept

	oldest := kept[0]
	for _, ts := range kept {
		if ts < oldest {
			oldest = ts
		}
	}
	return len(kept), oldest + int64(sw.window)
}

func (sw *slidingWindow) pruneLoop() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for range tick.C {
		cutoff := time.Now().UnixNano() - int64(sw.window)
		sw.mu.Lock()
		for key, hits := range sw.hits {
			kept := hits[:0]
			for _, ts := range hits {
				if ts >= cutoff {
					kept = append(kept, ts)
				}
			}
			if len(kept) == 0 {
				delete(sw.hits, key)
			} else {
				sw.hits[key] = kept
			}
		}
		sw.mu.Unlock()
	}
}

func retryAfterSeconds(expiry int64) int {
	secs := int((expiry - time.Now().UnixNano()) / 1e9)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func writeRateLimited(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": "Too many requests, please try again later",
		"data":    map[string]interface{}{"retry_after_seconds": retryAfter},
	})
}

// clientIP resolves the caller's IP. X-Forwarded-For and X-Real-IP are only
// honored when the remote address matches one of the trusted proxy entries
// (plain IPs or CIDRs), otherwise a client could spoof its way past limits.
func clientIP(r *http.Request, trustedProxies []string) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	remote := net.ParseIP(host)

	if remote != nil && proxyTrusted(remote, trustedProxies) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			return strings.TrimSpace(strings.Split(xff, ",")[0])
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	return host
}

func proxyTrusted(remote net.IP, trusted []string) bool {
	for _, entry := range trusted {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			if _, ipnet, err := net.ParseCIDR(entry); err == nil && ipnet.Contains(remote) {
				return true
			}
			continue
		}
		if ip := net.ParseIP(entry); ip != nil && ip.Equal(remote) {
			return true
		}
	}
	return false
}

// IPRateLimiter limits by client IP over a sliding window. Used on the
// unauthenticated surface (login, register, refresh) and on voting, which
// gets its own looser window.
type IPRateLimiter struct {
	limit   int
	trusted []string
	win     *slidingWindow
}

func NewIPRateLimiter(maxReq int, window time.Duration) *IPRateLimiter {
	var trusted []string
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		trusted = strings.Split(v, ",")
	}
	return &IPRateLimiter{limit: maxReq, trusted: trusted, win: newSlidingWindow(window)}
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, expiry := l.win.touch(clientIP(r, l.trusted))

		remaining := l.limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", l.limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > l.limit {
			writeRateLimited(w, retryAfterSeconds(expiry))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserRateLimiter limits authenticated traffic per user and route category,
// with escalating penalty windows for users who keep hitting the ceiling.
type UserRateLimiter struct {
	readLimit  int
	writeLimit int
	win        *slidingWindow

	mu        sync.Mutex
	penalties map[string]penalty
}

type penalty struct {
	level int
	until int64
}

func NewUserRateLimiter(maxRead, maxWrite, windowSec int) *UserRateLimiter {
	return &UserRateLimiter{
		readLimit:  maxRead,
		writeLimit: maxWrite,
		win:        newSlidingWindow(time.Duration(windowSec) * time.Second),
		penalties:  make(map[string]penalty),
	}
}

// penaltyDuration escalates 1m, 5m, 15m, then 30m for repeat offenders. The
// login lockout below uses the same ladder.
func penaltyDuration(level int) time.Duration {
	switch level {
	case 1:
		return time.Minute
	case 2:
		return 5 * time.Minute
	case 3:
		return 15 * time.Minute
	default:
		return 30 * time.Minute
	}
}

func (l *UserRateLimiter) limitFor(r *http.Request) int {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return l.readLimit
	default:
		return l.writeLimit
	}
}

func (l *UserRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := utils.GetUserID(r)
		if !ok {
			// unauthenticated requests are covered by the IP limiter
			next.ServeHTTP(w, r)
			return
		}
		if role, _ := r.Context().Value(utils.UserRoleKey).(string); role == "admin" {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("u:%d:%s", uid, r.Method)
		now := time.Now().UnixNano()

		l.mu.Lock()
		p := l.penalties[key]
		if p.until > now {
			l.mu.Unlock()
			writeRateLimited(w, retryAfterSeconds(p.until))
			return
		}
		l.mu.Unlock()

		limit := l.limitFor(r)
		count, _ := l.win.touch(key)

		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > limit {
			l.mu.Lock()
			p = l.penalties[key]
			p.level++
			p.until = now + int64(penaltyDuration(p.level))
			l.penalties[key] = p
			l.mu.Unlock()
			writeRateLimited(w, int(penaltyDuration(p.level).Seconds()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login lockout. Redis-backed when available so the lock holds across
// instances, in-memory otherwise.
var (
	lockoutMu    sync.Mutex
	loginFails   = make(map[uint]int)
	loginLockTil = make(map[uint]int64)
)

func IsAccountLocked(userID uint) (bool, time.Duration) {
	if utils.RedisClient != nil {
		ttl, err := utils.RedisClient.TTL(context.Background(), fmt.Sprintf("login:lock:u:%d", userID)).Result()
		if err == nil && ttl > 0 {
			return true, ttl
		}
		return false, 0
	}

	lockoutMu.Lock()
	defer lockoutMu.Unlock()
	until := loginLockTil[userID]
	now := time.Now().UnixNano()
	if until > now {
		return true, time.Duration(until - now)
	}
	if until != 0 {
		delete(loginLockTil, userID)
		loginFails[userID] = 0
	}
	return false, 0
}

func RecordFailedLogin(userID uint) {
	if utils.RedisClient != nil {
		ctx := context.Background()
		failKey := fmt.Sprintf("login:fail:u:%d", userID)
		failures, err := utils.RedisClient.Incr(ctx, failKey).Result()
		if err == nil {
			_ = utils.RedisClient.Expire(ctx, failKey, 30*time.Minute).Err()
			lock := penaltyDuration(int(failures))
			_ = utils.RedisClient.Set(ctx, fmt.Sprintf("login:lock:u:%d", userID), "1", lock).Err()
			return
		}
		// fall through to memory on Redis errors
	}

	lockoutMu.Lock()
	defer lockoutMu.Unlock()
	loginFails[userID]++
	loginLockTil[userID] = time.Now().UnixNano() + int64(penaltyDuration(loginFails[userID]))
}

func ResetFailedLogin(userID uint) {
	if utils.RedisClient != nil {
		ctx := context.Background()
		_ = utils.RedisClient.Del(ctx,
			fmt.Sprintf("login:fail:u:%d", userID),
			fmt.Sprintf("login:lock:u:%d", userID)).Err()
		return
	}
	lockoutMu.Lock()
	defer lockoutMu.Unlock()
	delete(loginLockTil, userID)
	loginFails[userID] = 0
}

// WhitelistLimiter is an IP limiter with a bypass list. It guards the
// expensive admin maintenance endpoints (badge recompute, tag resync) so only
// known operator IPs can call them freely.
type WhitelistLimiter struct {
	limit     int
	whitelist map[string]bool
	win       *slidingWindow
}

func NewWhitelistLimiter(maxReq int, window time.Duration, whitelist []string) *WhitelistLimiter {
	wl := make(map[string]bool, len(whitelist))
	for _, ip := range whitelist {
		if ip = strings.TrimSpace(ip); ip != "" {
			wl[ip] = true
		}
	}
	return &WhitelistLimiter{limit: maxReq, whitelist: wl, win: newSlidingWindow(window)}
}

func (l *WhitelistLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, nil)
		if l.whitelist[ip] {
			next.ServeHTTP(w, r)
			return
		}
		count, expiry := l.win.touch(ip)
		if count > l.limit {
			writeRateLimited(w, retryAfterSeconds(expiry))
			return
		}
		next.ServeHTTP(w, r)
	})
}

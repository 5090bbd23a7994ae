package middleware

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// MaxBodyMiddleware caps request body size. JSON endpoints get MAX_BODY_BYTES
// (default 1 MiB); the multipart upload endpoints (avatars, profile images)
// get MAX_UPLOAD_BYTES (default 6 MiB) so a 5 MiB image plus form overhead
// still fits.
func MaxBodyMiddleware(next http.Handler) http.Handler {
	jsonMax := envBytes("MAX_BODY_BYTES", 1<<20)
	uploadMax := envBytes("MAX_UPLOAD_BYTES", 6<<20)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := jsonMax
		if strings.HasSuffix(r.URL.Path, "/avatar") || strings.HasSuffix(r.URL.Path, "/image") {
			limit = uploadMax
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

func envBytes(key string, def int64) int64 {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			return v
		}
	}
	return def
}

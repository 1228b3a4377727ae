// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package pipeline

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/vecinity/vecinity-api/internal/httperr"
	"github.com/vecinity/vecinity-api/internal/ratelimit"
)

type throttled struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// limited reports whether path is under the throttled /api prefix.
func limited(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// RateLimit counts /api requests per client IP and answers 429 once the
// window budget is spent. A nil limiter disables the stage.
func RateLimit(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limited(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			rc, r := ensure(r)
			d := l.Allow(rc.ClientIP)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(int(d.RetryAfter(l.Now()).Seconds())))
				e := httperr.RateLimitExceeded()
				httperr.WriteJSON(w, e.Status, throttled{Message: e.Message, Error: e.Message})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

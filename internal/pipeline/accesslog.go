// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package pipeline

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
)

const clfTime = "02/Jan/2006:15:04:05 -0700"

// accessEntry is what a format needs to render one line.
type accessEntry struct {
	r        *http.Request
	status   int
	length   string
	start    time.Time
	duration time.Duration
	clientIP string
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (e accessEntry) statusText() string {
	if e.status == 0 {
		return "-"
	}
	return strconv.Itoa(e.status)
}

func (e accessEntry) user() string {
	if u, _, ok := e.r.BasicAuth(); ok {
		return dash(u)
	}
	return "-"
}

func (e accessEntry) requestLine() string {
	return fmt.Sprintf("%s %s HTTP/%d.%d", e.r.Method, e.r.URL.RequestURI(), e.r.ProtoMajor, e.r.ProtoMinor)
}

func (e accessEntry) ms() string {
	return strconv.FormatFloat(float64(e.duration.Microseconds())/1000, 'f', 3, 64)
}

var formats = map[string]func(accessEntry) string{
	"combined": func(e accessEntry) string {
		return fmt.Sprintf(`%s - %s [%s] "%s" %s %s "%s" "%s"`,
			e.clientIP, e.user(), e.start.Format(clfTime), e.requestLine(), e.statusText(), e.length,
			dash(e.r.Referer()), dash(e.r.UserAgent()))
	},
	"common": func(e accessEntry) string {
		return fmt.Sprintf(`%s - %s [%s] "%s" %s %s`,
			e.clientIP, e.user(), e.start.Format(clfTime), e.requestLine(), e.statusText(), e.length)
	},
	"dev": func(e accessEntry) string {
		return fmt.Sprintf("%s %s %s %s ms - %s", e.r.Method, e.r.URL.RequestURI(), e.statusText(), e.ms(), e.length)
	},
	"short": func(e accessEntry) string {
		return fmt.Sprintf("%s %s %s %s %s - %s ms",
			e.clientIP, e.user(), e.requestLine(), e.statusText(), e.length, e.ms())
	},
	"tiny": func(e accessEntry) string {
		return fmt.Sprintf("%s %s %s %s - %s ms", e.r.Method, e.r.URL.RequestURI(), e.statusText(), e.length, e.ms())
	},
}

// formatFor returns the renderer for name, falling back to combined.
func formatFor(name string) func(accessEntry) string {
	if f, ok := formats[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f
	}
	return formats["combined"]
}

// AccessLog writes one line per request once the response is complete,
// including requests that end in an error or a panic.
func AccessLog(format string, l *clog.Logger) func(http.Handler) http.Handler {
	render := formatFor(format)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, r := ensure(r)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			completed := false
			defer func() {
				status := ww.Status()
				// A handler that returns without writing gets an implicit 200.
				if status == 0 && completed {
					status = http.StatusOK
				}
				length := ww.Header().Get("Content-Length")
				if length == "" && ww.BytesWritten() > 0 {
					length = strconv.Itoa(ww.BytesWritten())
				}
				l.Info(render(accessEntry{
					r:        r,
					status:   status,
					length:   dash(length),
					start:    start,
					duration: time.Since(start),
					clientIP: rc.ClientIP,
				}))
			}()
			next.ServeHTTP(ww, r)
			completed = true
		})
	}
}

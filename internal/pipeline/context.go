// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package pipeline

import (
	"context"
	"net"
	"net/http"
	"net/url"
)

type ctxKey struct{}

// RequestContext is the per-request state shared by the stages and the
// handlers. It is never shared across requests.
type RequestContext struct {
	ClientIP string
	// Body is the decoded request body: map[string]any for forms, any JSON
	// value otherwise. Nil when the request had no decodable body.
	Body any
	// Form is the collapsed urlencoded body, nil for other content types.
	Form url.Values
	// QueryPolluted and BodyPolluted hold the original values of parameters
	// that were sent more than once.
	QueryPolluted map[string][]string
	BodyPolluted  map[string][]string
	// Route is the matched route pattern, filled in by the router.
	Route string

	sanitizeBody bool
}

// FromContext returns the RequestContext of r, or nil outside the chain.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(ctxKey{}).(*RequestContext)
	return rc
}

// From returns the RequestContext of r, or nil outside the chain.
func From(r *http.Request) *RequestContext {
	return FromContext(r.Context())
}

// ensure returns the RequestContext of r, attaching a new one when absent.
func ensure(r *http.Request) (*RequestContext, *http.Request) {
	if rc := From(r); rc != nil {
		return rc, r
	}
	rc := &RequestContext{ClientIP: clientIP(r)}
	return rc, r.WithContext(context.WithValue(r.Context(), ctxKey{}, rc))
}

func attachContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, r = ensure(r)
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

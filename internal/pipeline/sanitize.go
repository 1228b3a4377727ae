// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package pipeline

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// scrub strips markup from s. Values without angle brackets are returned
// untouched so ordinary text keeps its ampersands and quotes.
func scrub(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	return strict.Sanitize(s)
}

// scrubValue walks a decoded JSON value and scrubs every string in it,
// including object keys. Numbers decoded as json.Number are left as they
// are. The bool reports whether anything was rewritten.
func scrubValue(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		s := scrub(t)
		return s, s != t
	case map[string]any:
		changed := false
		out := make(map[string]any, len(t))
		for k, e := range t {
			sk := scrub(k)
			se, c := scrubValue(e)
			out[sk] = se
			changed = changed || c || sk != k
		}
		return out, changed
	case []any:
		changed := false
		for i, e := range t {
			se, c := scrubValue(e)
			t[i] = se
			changed = changed || c
		}
		return t, changed
	default:
		return v, false
	}
}

func scrubValues(vals url.Values) (url.Values, bool) {
	changed := false
	out := make(url.Values, len(vals))
	for k, vs := range vals {
		sk := scrub(k)
		if sk != k {
			changed = true
		}
		for _, v := range vs {
			sv := scrub(v)
			if sv != v {
				changed = true
			}
			out[sk] = append(out[sk], sv)
		}
	}
	return out, changed
}

// Sanitize scrubs script payloads from the path and query string and marks
// the body for scrubbing once the body stage has decoded it.
func Sanitize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, r := ensure(r)
		rc.sanitizeBody = true

		p := scrub(r.URL.Path)
		q, changed := scrubValues(r.URL.Query())
		if p != r.URL.Path || changed {
			r = r.Clone(r.Context())
			r.URL.Path = p
			r.URL.RawPath = ""
			r.URL.RawQuery = q.Encode()
		}
		next.ServeHTTP(w, r)
	})
}

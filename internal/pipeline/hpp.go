// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package pipeline

import (
	"net/http"
	"net/url"
)

// collapse keeps the last value of every repeated key. Repeated keys are
// returned with all their original values.
func collapse(vals url.Values) (url.Values, map[string][]string) {
	var polluted map[string][]string
	for k, vs := range vals {
		if len(vs) < 2 {
			continue
		}
		if polluted == nil {
			polluted = make(map[string][]string)
		}
		polluted[k] = vs
		vals[k] = vs[len(vs)-1:]
	}
	return vals, polluted
}

// HPP guards against HTTP parameter pollution in the query string.
func HPP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, r := ensure(r)
		q, polluted := collapse(r.URL.Query())
		if polluted != nil {
			rc.QueryPolluted = polluted
			r = r.Clone(r.Context())
			r.URL.RawQuery = q.Encode()
		}
		next.ServeHTTP(w, r)
	})
}

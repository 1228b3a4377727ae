// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package pipeline

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS allows cross-origin requests from the listed origins with
// credentials. A "*" entry allows any origin; the request origin is echoed
// back since browsers refuse a literal wildcard on credentialed requests.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	wildcard := false
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			wildcard = true
		}
		allowed[o] = struct{}{}
	}
	c := cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			if wildcard {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler
}

// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package pipeline

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const uploadsPrefix = "/uploads/"

// Static serves files under /uploads/ from dir so other origins may embed
// them. Requests for missing files fall through to the router.
func Static(dir string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if dir == "" {
			return next
		}
		files := http.StripPrefix(strings.TrimSuffix(uploadsPrefix, "/"), http.FileServer(http.Dir(dir)))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if (r.Method != http.MethodGet && r.Method != http.MethodHead) || !strings.HasPrefix(r.URL.Path, uploadsPrefix) {
				next.ServeHTTP(w, r)
				return
			}
			name := path.Clean("/" + strings.TrimPrefix(r.URL.Path, uploadsPrefix))
			fi, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
			if err != nil || fi.IsDir() {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
			files.ServeHTTP(w, r)
		})
	}
}

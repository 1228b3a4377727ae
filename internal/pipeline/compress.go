// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package pipeline

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Compression gzips responses for clients that accept it. Bodies below
// gzhttp's default minimum size are sent as is.
func Compression(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/vecinity/vecinity-api/internal/httperr"
)

const (
	mimeJSON = "application/json"
	mimeForm = "application/x-www-form-urlencoded"
)

func bodyKind(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	switch {
	case mt == mimeJSON, strings.HasSuffix(mt, "+json"):
		return mimeJSON
	case mt == mimeForm:
		return mimeForm
	}
	return ""
}

// decodeJSON parses exactly one JSON value. Numbers stay json.Number so
// integers beyond float64 precision survive.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// Body decodes JSON and urlencoded bodies up to limit bytes. Larger bodies
// are rejected with 413 before any handler runs and malformed JSON with 400.
// The decoded value is stored on the RequestContext and handed to the next
// handler as r.Body, unchanged unless scrubbing rewrote it. Other content
// types pass through untouched.
func Body(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			kind := bodyKind(r)
			if kind == "" || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				httperr.Write(w, r, httperr.PayloadTooLarge(nil))
				return
			}
			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
			if err != nil {
				var mbe *http.MaxBytesError
				if errors.As(err, &mbe) {
					httperr.Write(w, r, httperr.PayloadTooLarge(err))
					return
				}
				httperr.Write(w, r, httperr.BadRequest("", err))
				return
			}

			rc, r := ensure(r)
			var raw []byte
			switch kind {
			case mimeJSON:
				if len(bytes.TrimSpace(data)) == 0 {
					raw = data
					break
				}
				v, err := decodeJSON(data)
				if err != nil {
					httperr.Write(w, r, httperr.BadRequest("", err))
					return
				}
				raw = data
				if rc.sanitizeBody {
					var changed bool
					if v, changed = scrubValue(v); changed {
						if raw, err = json.Marshal(v); err != nil {
							httperr.Write(w, r, httperr.Internal(err))
							return
						}
					}
				}
				rc.Body = v
			case mimeForm:
				vals, err := url.ParseQuery(string(data))
				if err != nil {
					httperr.Write(w, r, httperr.BadRequest("", err))
					return
				}
				if rc.sanitizeBody {
					vals, _ = scrubValues(vals)
				}
				vals, rc.BodyPolluted = collapse(vals)
				m := make(map[string]any, len(vals))
				for k, vs := range vals {
					m[k] = vs[0]
				}
				rc.Body = m
				rc.Form = vals
				raw = []byte(vals.Encode())
			}

			r.Body = io.NopCloser(bytes.NewReader(raw))
			r.ContentLength = int64(len(raw))
			next.ServeHTTP(w, r)
		})
	}
}

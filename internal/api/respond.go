// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-viper/mapstructure/v2"

	"github.com/vecinity/vecinity-api/internal/httperr"
	"github.com/vecinity/vecinity-api/internal/pipeline"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func ok(w http.ResponseWriter, status int, data any) error {
	httperr.WriteJSON(w, status, envelope{Success: true, Data: data})
	return nil
}

// bind decodes the request body into v. Bodies already decoded by the
// pipeline are taken from the RequestContext.
func bind(r *http.Request, v any) error {
	rc := pipeline.From(r)
	if rc != nil && rc.Form != nil {
		return bindForm(rc.Form, v)
	}
	if rc != nil && rc.Body != nil {
		raw, err := json.Marshal(rc.Body)
		if err != nil {
			return httperr.BadRequest("", err)
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return httperr.BadRequest("", err)
		}
		return nil
	}
	if r.Body == nil {
		return httperr.BadRequest("", nil)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return httperr.BadRequest("", nil)
		}
		return httperr.BadRequest("", err)
	}
	return nil
}

// bindForm decodes urlencoded values into v by json tag. Form values are
// strings, so numbers and booleans are converted; empty values are skipped
// and leave optional fields nil.
func bindForm(form url.Values, v any) error {
	in := make(map[string]any, len(form))
	for k := range form {
		if val := form.Get(k); val != "" {
			in[k] = val
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return httperr.Internal(err)
	}
	if err := dec.Decode(in); err != nil {
		return httperr.BadRequest("", err)
	}
	return nil
}

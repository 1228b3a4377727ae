// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"net/http"
	"time"

	"github.com/vecinity/vecinity-api/internal/httperr"
	"github.com/vecinity/vecinity-api/internal/i18n"
)

// Health is the body of GET /api/health.
type Health struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	// Database is the storage kind of the configured driver, "MySQL" in production.
	Database    string `json:"database"`
	Environment string `json:"environment"`
}

func health(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httperr.WriteJSON(w, http.StatusOK, Health{
			Status:      "OK",
			Message:     i18n.T("health_message"),
			Timestamp:   d.Now().UTC().Format(time.RFC3339Nano),
			Database:    d.StorageKind,
			Environment: d.Environment,
		})
	}
}

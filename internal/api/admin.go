// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vecinity/vecinity-api/internal/db"
	"github.com/vecinity/vecinity-api/internal/httperr"
	"github.com/vecinity/vecinity-api/internal/i18n"
)

type adminGroup struct{ store Store }

func (g *adminGroup) Prefix() string { return "/admin" }

func (g *adminGroup) Routes(r chi.Router) {
	r.Get("/stats", httperr.Handle(g.stats))
	r.Patch("/reports/{id}/status", httperr.Handle(g.updateStatus))
}

func (g *adminGroup) stats(w http.ResponseWriter, r *http.Request) error {
	st, err := g.store.Stats(r.Context())
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, st)
}

func (g *adminGroup) updateStatus(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := bind(r, &req); err != nil {
		return err
	}
	if !db.ValidStatus(req.Status) {
		return httperr.BadRequest(i18n.T("reports.invalid_status"), nil)
	}
	id := chi.URLParam(r, "id")
	if err := g.store.UpdateReportStatus(r.Context(), id, req.Status); err != nil {
		return err
	}
	rep, err := g.store.GetReport(r.Context(), id)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, rep)
}

// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vecinity/vecinity-api/internal/httperr"
)

type usersGroup struct{ store Store }

func (g *usersGroup) Prefix() string { return "/users" }

func (g *usersGroup) Routes(r chi.Router) {
	r.Get("/{id}", httperr.Handle(g.get))
}

func (g *usersGroup) get(w http.ResponseWriter, r *http.Request) error {
	u, err := g.store.GetUserByPublicID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, u)
}

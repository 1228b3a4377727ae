// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vecinity/vecinity-api/internal/httperr"
)

type categoriesGroup struct{ store Store }

func (g *categoriesGroup) Prefix() string { return "/categories" }

func (g *categoriesGroup) Routes(r chi.Router) {
	r.Get("/", httperr.Handle(g.list))
	r.Get("/{id}", httperr.Handle(g.get))
}

func (g *categoriesGroup) list(w http.ResponseWriter, r *http.Request) error {
	cats, err := g.store.ListCategories(r.Context())
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, cats)
}

func (g *categoriesGroup) get(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return httperr.NotFound("")
	}
	c, err := g.store.GetCategory(r.Context(), id)
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, c)
}

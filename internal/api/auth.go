// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vecinity/vecinity-api/internal/db"
	"github.com/vecinity/vecinity-api/internal/httperr"
	"github.com/vecinity/vecinity-api/internal/i18n"
)

const minPasswordLen = 6

// bcryptCost is lowered by tests.
var bcryptCost = bcrypt.DefaultCost

type authGroup struct{ store Store }

func (g *authGroup) Prefix() string { return "/auth" }

func (g *authGroup) Routes(r chi.Router) {
	r.Post("/register", httperr.Handle(g.register))
	r.Post("/login", httperr.Handle(g.login))
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (g *authGroup) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := bind(r, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return httperr.BadRequest(i18n.T("auth.missing_fields"), nil)
	}
	if len(req.Password) < minPasswordLen {
		return httperr.BadRequest(i18n.T("auth.password_too_short", minPasswordLen), nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return httperr.Internal(err)
	}
	u := &db.User{Name: req.Name, Email: req.Email, PasswordHash: string(hash)}
	if err := g.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return httperr.Conflict(i18n.T("auth.email_taken"))
		}
		return err
	}
	return ok(w, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (g *authGroup) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := bind(r, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return httperr.BadRequest(i18n.T("auth.missing_fields"), nil)
	}
	u, err := g.store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, db.ErrNotFound) {
		return httperr.Unauthorized(i18n.T("auth.invalid_credentials"))
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return httperr.Unauthorized(i18n.T("auth.invalid_credentials"))
	}
	return ok(w, http.StatusOK, u)
}

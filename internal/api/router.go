// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

// Package api maps URL prefixes to the route groups of the API and owns the
// fallback responses for unmatched routes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vecinity/vecinity-api/internal/db"
	"github.com/vecinity/vecinity-api/internal/httperr"
	"github.com/vecinity/vecinity-api/internal/pipeline"
)

// Store is the storage surface used by the route groups. *db.Store
// satisfies it.
type Store interface {
	ListCategories(ctx context.Context) ([]db.Category, error)
	GetCategory(ctx context.Context, id int64) (*db.Category, error)
	CreateUser(ctx context.Context, u *db.User) error
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetUserByPublicID(ctx context.Context, id string) (*db.User, error)
	ListReports(ctx context.Context, f db.ReportFilter) ([]db.Report, int, error)
	GetReport(ctx context.Context, id string) (*db.Report, error)
	CreateReport(ctx context.Context, r *db.Report) error
	UpdateReportStatus(ctx context.Context, id, status string) error
	Stats(ctx context.Context) (*db.Stats, error)
}

// Group is a set of routes mounted under /api + Prefix().
type Group interface {
	Prefix() string
	Routes(r chi.Router)
}

// Deps are the collaborators of the router.
type Deps struct {
	Store Store
	// StorageKind is the label reported by the health check, e.g. "MySQL".
	StorageKind string
	Environment string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Groups returns the route groups in mount order.
func Groups(store Store) []Group {
	return []Group{
		&authGroup{store: store},
		&usersGroup{store: store},
		&reportsGroup{store: store},
		&categoriesGroup{store: store},
		&adminGroup{store: store},
	}
}

// NewRouter builds the API router.
func NewRouter(d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	r := chi.NewRouter()
	r.Use(recordRoute)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperr.Write(w, r, httperr.RouteNotFound())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperr.Write(w, r, httperr.MethodNotAllowed())
	})

	r.Route("/api", func(r chi.Router) {
		for _, g := range Groups(d.Store) {
			r.Route(g.Prefix(), g.Routes)
		}
		r.Get("/health", health(d))
	})
	return r
}

// recordRoute stores the matched route pattern on the RequestContext once
// the handler has run.
func recordRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		rc := pipeline.From(r)
		if rc == nil {
			return
		}
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rc.Route = rctx.RoutePattern()
		}
	})
}

// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vecinity/vecinity-api/internal/db"
	"github.com/vecinity/vecinity-api/internal/httperr"
	"github.com/vecinity/vecinity-api/internal/i18n"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type reportsGroup struct{ store Store }

func (g *reportsGroup) Prefix() string { return "/reports" }

func (g *reportsGroup) Routes(r chi.Router) {
	r.Get("/", httperr.Handle(g.list))
	r.Post("/", httperr.Handle(g.create))
	r.Get("/{id}", httperr.Handle(g.get))
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type reportPage struct {
	Reports    []db.Report `json:"reports"`
	Pagination Pagination  `json:"pagination"`
}

func intParam(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (g *reportsGroup) list(w http.ResponseWriter, r *http.Request) error {
	page := intParam(r, "page", 1)
	limit := min(intParam(r, "limit", defaultPageSize), maxPageSize)

	if page-1 > math.MaxInt32/limit {
		return httperr.BadRequest(i18n.T("reports.invalid_page"), nil)
	}

	f := db.ReportFilter{Limit: limit, Offset: (page - 1) * limit}
	if c := intParam(r, "category", 0); c > 0 {
		f.CategoryID = int64(c)
	}
	if s := r.URL.Query().Get("status"); s != "" {
		if !db.ValidStatus(s) {
			return httperr.BadRequest(i18n.T("reports.invalid_status"), nil)
		}
		f.Status = s
	}

	reports, total, err := g.store.ListReports(r.Context(), f)
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []db.Report{}
	}
	return ok(w, http.StatusOK, reportPage{
		Reports: reports,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	})
}

func (g *reportsGroup) get(w http.ResponseWriter, r *http.Request) error {
	rep, err := g.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	return ok(w, http.StatusOK, rep)
}

type createReportRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CategoryID  int64    `json:"categoryId"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageURL    string   `json:"imageUrl"`
	UserID      string   `json:"userId"`
}

func (g *reportsGroup) create(w http.ResponseWriter, r *http.Request) error {
	var req createReportRequest
	if err := bind(r, &req); err != nil {
		return err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" || req.CategoryID == 0 {
		return httperr.BadRequest(i18n.T("reports.missing_fields"), nil)
	}

	ctx := r.Context()
	if _, err := g.store.GetCategory(ctx, req.CategoryID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return httperr.BadRequest(i18n.T("reports.invalid_category"), err)
		}
		return err
	}
	rep := &db.Report{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ImageURL:    req.ImageURL,
	}
	if req.UserID != "" {
		u, err := g.store.GetUserByPublicID(ctx, req.UserID)
		if err != nil {
			return err
		}
		rep.UserID = &u.ID
	}
	if err := g.store.CreateReport(ctx, rep); err != nil {
		return err
	}
	created, err := g.store.GetReport(ctx, rep.PublicID)
	if err != nil {
		return err
	}
	return ok(w, http.StatusCreated, created)
}

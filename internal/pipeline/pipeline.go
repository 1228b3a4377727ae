// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

// Package pipeline holds the ordered middleware chain every request passes
// through before it reaches the router. The chain is a plain slice of named
// stages so its order can be inspected and tested.
package pipeline

import (
	"net/http"

	clog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vecinity/vecinity-api/internal/config"
	"github.com/vecinity/vecinity-api/internal/logging"
	"github.com/vecinity/vecinity-api/internal/ratelimit"
)

// Stage is one named step of the chain.
type Stage struct {
	Name string
	Wrap func(http.Handler) http.Handler
}

// Options carries everything the stages need.
type Options struct {
	CORSOrigins []string
	Limiter     *ratelimit.Limiter
	// LogFormat is a morgan-style format name: combined, common, dev,
	// short or tiny.
	LogFormat string
	AccessLog *clog.Logger
	BodyLimit int64
	UploadDir string
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	TrustProxy bool
}

// OptionsFromConfig derives pipeline options from the server configuration.
func OptionsFromConfig(cfg *config.ServerConfig, limiter *ratelimit.Limiter) Options {
	return Options{
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		LogFormat:   cfg.LogLevel,
		BodyLimit:   cfg.BodyLimitBytes,
		UploadDir:   cfg.UploadDir,
		TrustProxy:  cfg.TrustProxy,
	}
}

// Stage names, in chain order.
const (
	StageSecurityHeaders = "security-headers"
	StageXSSSanitize     = "xss-sanitize"
	StageHPP             = "hpp"
	StageRateLimit       = "rate-limit"
	StageCompression     = "compression"
	StageAccessLog       = "access-log"
	StageCORS            = "cors"
	StageBody            = "body"
	StageStatic          = "static"
)

// Stages returns the chain in execution order.
func Stages(opts Options) []Stage {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = config.DefaultBodyLimit
	}
	if opts.AccessLog == nil {
		opts.AccessLog = logging.Named("access")
	}
	return []Stage{
		{StageSecurityHeaders, SecurityHeaders},
		{StageXSSSanitize, Sanitize},
		{StageHPP, HPP},
		{StageRateLimit, RateLimit(opts.Limiter)},
		{StageCompression, Compression},
		{StageAccessLog, AccessLog(opts.LogFormat, opts.AccessLog)},
		{StageCORS, CORS(opts.CORSOrigins)},
		{StageBody, Body(opts.BodyLimit)},
		{StageStatic, Static(opts.UploadDir)},
	}
}

// Names lists the stage names of stages.
func Names(stages []Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Name
	}
	return out
}

// Build wraps h with stages so that stages[0] runs first. Each request gets
// a fresh RequestContext before the first stage.
func Build(stages []Stage, trustProxy bool, h http.Handler) http.Handler {
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i].Wrap(h)
	}
	h = attachContext(h)
	if trustProxy {
		h = middleware.RealIP(h)
	}
	return h
}

// New builds the full chain for opts around h.
func New(opts Options, h http.Handler) http.Handler {
	return Build(Stages(opts), opts.TrustProxy, h)
}

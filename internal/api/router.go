// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/callscope/internal/config"
)

// Router wires handlers and middleware into the chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router over the given dependencies.
func NewRouter(store Store, engine SyncRunner, exporter Exporter, cfg *config.Config) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Server.CORSOrigins
	if cfg.Server.RateLimitReqs > 0 {
		mwConfig.RateLimitRequests = cfg.Server.RateLimitReqs
	}
	if cfg.Server.RateLimitWindow > 0 {
		mwConfig.RateLimitWindow = cfg.Server.RateLimitWindow
	}
	mwConfig.RateLimitDisabled = cfg.Server.RateLimitDisabled

	return &Router{
		handler:       NewHandler(store, engine, exporter, cfg),
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// Setup configures all HTTP routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health endpoints get permissive rate limiting so monitoring can
	// poll frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Core read endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())
		r.Use(Compression())

		r.Get("/conversations", router.handler.ListConversations)
		r.Get("/months", router.handler.ListMonths)
		r.Get("/kpis", router.handler.KPIs)
	})

	// Sync triggers start provider traffic; only the trigger gets the
	// strict limit, the ledger read keeps the default one.
	r.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.With(router.chiMiddleware.RateLimitCustom(RateLimitSync)).Post("/", router.handler.TriggerSync)
		r.With(router.chiMiddleware.RateLimit()).Get("/runs", router.handler.ListSyncRuns)
	})

	r.Route("/api/v1/conversations/refetch", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitSync))
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Post("/", router.handler.RefetchConversations)
	})

	// Archive writes and CSV downloads are resource intensive.
	r.Route("/api/v1/archives", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitExport))
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Get("/", router.handler.ListArchives)
		r.Post("/", router.handler.CreateArchive)
		r.Get("/{id}/download", router.handler.DownloadArchive)
	})

	// Archive downloads are served with http.ServeFile, which manages
	// Content-Length and range requests itself, so the archives group
	// stays uncompressed while the streaming export gets gzip.
	r.Route("/api/v1/export", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitExport))
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())
		r.Use(Compression())

		r.Get("/", router.handler.ExportCSV)
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Package http wires the portal's routes, middleware stack, and operational
// endpoints into a single chi router.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"redeco/internal/catalog"
	clientshandler "redeco/internal/clients/handler"
	"redeco/internal/complaint"
	"redeco/internal/platform/health"
	"redeco/internal/platform/middleware"
	"redeco/internal/session"
	"redeco/internal/web"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger    *slog.Logger
	Manager   *session.Manager
	Web       *web.Handler
	Catalog   *catalog.Handler
	Complaint *complaint.Handler
	Clients   *clientshandler.Handler
	Health    *health.Handler
}

// New builds the portal router. Catalog pages that hit public endpoints are
// reachable without a token; everything touching protected endpoints or
// local data sits behind the session gate.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))

	// Operational endpoints stay outside the session middleware.
	deps.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(deps.Manager.WithSession)

		deps.Web.Register(r)
		deps.Catalog.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(deps.Manager.RequireToken)

			r.Get("/", deps.Web.HomePage)
			deps.Catalog.RegisterProtected(r)
			deps.Complaint.Register(r)
			deps.Clients.Register(r)
		})
	})

	return r
}

// Package httptransport assembles the HTTP surface: entity routes behind
// bearer auth, the screen registry, health, metrics and operator endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"medplant/internal/screen"
	dErrors "medplant/pkg/domain-errors"
	"medplant/pkg/platform/httputil"
	"medplant/pkg/platform/middleware/admin"
	authmw "medplant/pkg/platform/middleware/auth"
	"medplant/pkg/platform/middleware/metadata"
	"medplant/pkg/platform/middleware/request"
	"medplant/pkg/platform/middleware/requesttime"
)

// Registrar mounts routes on a router already scoped to its prefix.
type Registrar interface {
	Register(r chi.Router)
}

// EntityRoutes binds one entity handler to its URL segment, e.g. "departments".
type EntityRoutes struct {
	Path    string
	Handler Registrar
}

type Deps struct {
	Logger     *slog.Logger
	Tokens     authmw.TokenValidator
	Resolve    authmw.PrincipalResolver
	Entities   []EntityRoutes
	Screens    *screen.Registry
	Audit      AuditReader
	AdminToken string
	Metrics    http.Handler
	Health     []HealthCheck
}

// NewRouter wires all public endpoints.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.CleanPath)
	r.Use(request.RequestID)
	r.Use(request.Recovery(logger))
	r.Use(request.Logger(logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})

	r.Get("/healthz", NewHealthHandler(d.Health, logger).ServeHTTP)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(authmw.RequireAuth(d.Tokens, d.Resolve, logger))
		if d.Screens != nil {
			api.Route("/screens", screen.NewHandler(d.Screens).Register)
		}
		for _, e := range d.Entities {
			api.Route("/"+e.Path, e.Handler.Register)
		}
	})

	if d.Audit != nil {
		r.Route("/admin", func(ar chi.Router) {
			ar.Use(admin.RequireAdminToken(d.AdminToken, logger))
			ar.Get("/audit", NewAuditHandler(d.Audit, logger).ServeHTTP)
		})
	}

	return r
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldforce-hq/fieldforce/internal/audit"
	"github.com/fieldforce-hq/fieldforce/internal/auth"
	"github.com/fieldforce-hq/fieldforce/internal/entities"
	"github.com/fieldforce-hq/fieldforce/internal/expenses"
	"github.com/fieldforce-hq/fieldforce/internal/rbac"
	"github.com/fieldforce-hq/fieldforce/internal/roles"
	"github.com/fieldforce-hq/fieldforce/internal/users"
	"github.com/fieldforce-hq/fieldforce/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	RBACMiddleware  rbac.Middleware
	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	RolesHandler    *roles.Handler
	EntitiesHandler *entities.Handler
	ExpensesHandler *expenses.Handler
	AuditHandler    *audit.Handler
	JobsHandler     *jobs.Handler
}

// NewRouter constructs the chi.Router with FieldForce defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.Authenticate)

			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/roles", params.RolesHandler.MountRoutes)
			if params.EntitiesHandler != nil {
				r.Route("/entities", params.EntitiesHandler.MountRoutes)
			}
			if params.ExpensesHandler != nil {
				r.Route("/expenses", params.ExpensesHandler.MountRoutes)
			}
			if params.AuditHandler != nil {
				r.Route("/audit", params.AuditHandler.MountRoutes)
			}
			if params.JobsHandler != nil {
				r.Route("/jobs", params.JobsHandler.MountRoutes)
			}
		})
	})

	return r
}

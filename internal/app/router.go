package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paperbill/paperbill/internal/auth"
	"github.com/paperbill/paperbill/internal/clients"
	"github.com/paperbill/paperbill/internal/invoicing"
	"github.com/paperbill/paperbill/internal/observability"
	"github.com/paperbill/paperbill/internal/templates"
	"github.com/paperbill/paperbill/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthService      *auth.Service
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	ClientsHandler   *clients.Handler
	TemplatesHandler *templates.Handler
	InvoicesHandler  *invoicing.Handler
	Pool             *pgxpool.Pool
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Error("health check db ping", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.AuthService.RequireAuth)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/clients", params.ClientsHandler.MountRoutes)
		r.Route("/templates", params.TemplatesHandler.MountRoutes)
		r.Route("/invoices", params.InvoicesHandler.MountRoutes)
	})

	return r
}

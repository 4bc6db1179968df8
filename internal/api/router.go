package api

import (
	"log/slog"
	"net/http"

	apimw "github.com/altscribe/altscribe-api/internal/api/middleware"
	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/platform/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterConfig carries the handlers and cross-cutting settings of the router.
type RouterConfig struct {
	Logger      *slog.Logger
	CORSOrigins []string
	Sessions    apimw.SessionResolver

	Auth   *AuthHandler
	Items  *ItemsHandler
	Jobs   *JobHandler
	Admin  *AdminHandler
	Health *HealthHandler
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimw.NewTraceMiddleware(cfg.Logger))
	r.Use(apimw.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", apimw.TraceHeader, "Server-Timing"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(observability.ServerTimingMiddleware)

	authMiddleware := apimw.NewAuthMiddleware(cfg.Sessions)

	r.Get("/health", cfg.Health.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", cfg.Health.Health)

		r.Post("/auth/register", cfg.Auth.Register)
		r.Post("/auth/login", cfg.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/auth/logout", cfg.Auth.Logout)
			r.Get("/auth/me", cfg.Auth.Me)

			r.Get("/items", cfg.Items.ListItems)
			r.Post("/generate", cfg.Jobs.Generate)
			r.Get("/jobs", cfg.Jobs.ListJobs)
			r.Get("/jobs/{id}", cfg.Jobs.GetJob)
			r.Get("/jobs/{id}/proposals", cfg.Jobs.GetProposals)
			r.Get("/jobs/{id}/proposals/export", cfg.Jobs.ExportProposals)
			r.Post("/apply", cfg.Jobs.Apply)

			r.Route("/admin", func(r chi.Router) {
				r.Use(apimw.RequireRole(domain.RoleAdmin))

				r.Get("/settings", cfg.Admin.GetSettings)
				r.Put("/settings/notifications", cfg.Admin.UpdateNotifications)
				r.Put("/settings/invite-code", cfg.Admin.UpdateInviteCode)
				r.Get("/settings/api-keys", cfg.Admin.GetAPIKeys)
				r.Put("/settings/api-keys", cfg.Admin.UpdateAPIKeys)

				r.Get("/users", cfg.Admin.ListUsers)
				r.Post("/users/invite", cfg.Admin.InviteUser)
				r.Patch("/users/{id}", cfg.Admin.UpdateUser)
			})
		})
	})

	// Request spans are named by method and path; health checks are not traced.
	return otelhttp.NewHandler(r, "altscribe-api",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
		otelhttp.WithFilter(func(req *http.Request) bool { return req.URL.Path != "/health" }),
	)
}

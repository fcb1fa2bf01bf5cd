package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/worktally/internal/auth"
	"github.com/frahmantamala/worktally/internal/core/metrics"
	"github.com/frahmantamala/worktally/internal/dashboard"
	"github.com/frahmantamala/worktally/internal/invitation"
	"github.com/frahmantamala/worktally/internal/organization"
	"github.com/frahmantamala/worktally/internal/project"
	"github.com/frahmantamala/worktally/internal/timeentry"
	"github.com/frahmantamala/worktally/internal/timeoff"
	"github.com/frahmantamala/worktally/internal/transport/middleware"
	"github.com/frahmantamala/worktally/internal/transport/swagger"
	"github.com/frahmantamala/worktally/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

const APIPrefix = "/api/v1"

// Handlers bundles everything the router mounts. Nil handlers are skipped.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Organization *organization.Handler
	Invitation   *invitation.Handler
	TimeEntry    *timeentry.Handler
	Project      *project.Handler
	TimeOff      *timeoff.Handler
	Dashboard    *dashboard.Handler
}

type Options struct {
	DB             Pinger
	AllowedOrigins string
	RBAC           *auth.RBACAuthorization
	// RateLimiter guards the unauthenticated write endpoints when set.
	RateLimiter *middleware.RateLimiter
	// Metrics is served at MetricsPath when set.
	Metrics     *metrics.Metrics
	MetricsPath string
	OpenAPI     *swagger.Document
	Logger      *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	healthHandler := NewHealthHandler(opts.DB)
	rbac := opts.RBAC
	if rbac == nil {
		rbac = auth.NewRBACAuthorization(opts.Logger)
	}

	limited := func(next http.Handler) http.Handler { return next }
	if opts.RateLimiter != nil {
		limited = opts.RateLimiter.Middleware
	}

	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
		router.Method(http.MethodGet, opts.MetricsPath, opts.Metrics.Handler())
	}

	if opts.OpenAPI != nil {
		router.Method(http.MethodGet, swagger.SpecURL, opts.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route(APIPrefix, func(r chi.Router) {
		r.Use(middleware.LoggingMiddleware(opts.Logger))

		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Public routes
		r.Group(func(pub chi.Router) {
			pub.Use(limited)
			if h.Organization != nil {
				pub.Post("/organization/register", h.Organization.Register)
			}
			if h.Invitation != nil {
				pub.Post("/invitation/accept", h.Invitation.Accept)
			}
			if h.User != nil {
				pub.Post("/register", h.User.Register)
			}
			if h.Auth != nil {
				pub.Post("/login", h.Auth.Login)
			}
		})
		if h.Invitation != nil {
			r.Get("/invitation/{token}", h.Invitation.Preview)
		}

		if h.Auth == nil {
			return
		}

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Post("/logout", h.Auth.Logout)

			if h.User != nil {
				pr.Get("/me", h.User.GetMe)
				pr.Put("/me", h.User.UpdateMe)
				pr.Post("/change-password", h.User.ChangePassword)
				pr.Put("/update-profile", h.User.UpdateProfile)
			}

			if h.Organization != nil {
				pr.With(rbac.RequireOrganization()).Get("/organization", h.Organization.GetOrganization)
				pr.With(rbac.RequireOrganization()).Get("/organization/team", h.Organization.GetTeam)
			}
			if h.Invitation != nil {
				pr.With(rbac.RequirePrivileged(), rbac.RequireOrganization()).Post("/organization/invite", h.Invitation.Invite)
			}

			if h.TimeEntry != nil {
				pr.Post("/clock-in", h.TimeEntry.ClockIn)
				pr.Post("/clock-out", h.TimeEntry.ClockOut)
				pr.Route("/time-entries", func(er chi.Router) {
					er.Get("/", h.TimeEntry.List)
					er.Post("/", h.TimeEntry.Create)
					er.Get("/current", h.TimeEntry.Current)
					er.Get("/{id}", h.TimeEntry.Get)
					er.Put("/{id}", h.TimeEntry.Update)
					er.Delete("/{id}", h.TimeEntry.Delete)
				})
			}

			if h.Project != nil {
				pr.Route("/projects", func(pjr chi.Router) {
					pjr.Get("/", h.Project.List)
					pjr.Post("/", h.Project.Create)
					pjr.Get("/{id}", h.Project.Get)
					pjr.Put("/{id}", h.Project.Update)
					pjr.Delete("/{id}", h.Project.Delete)
				})
			}

			if h.TimeOff != nil {
				pr.Route("/time-off", func(tr chi.Router) {
					tr.Get("/", h.TimeOff.List)
					tr.Post("/", h.TimeOff.Create)
					tr.Get("/{id}", h.TimeOff.Get)
					tr.Put("/{id}", h.TimeOff.Update)
					tr.Delete("/{id}", h.TimeOff.Delete)
					tr.With(rbac.RequirePrivileged()).Post("/{id}/review", h.TimeOff.Review)
				})
			}

			if h.Dashboard != nil {
				pr.Get("/dashboard", h.Dashboard.Get)
			}
		})
	})
}

// Package app wires repositories, services and handlers into a router.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"gorm.io/gorm"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/auth"
	authPostgres "github.com/frahmantamala/worktally/internal/auth/postgres"
	"github.com/frahmantamala/worktally/internal/core/events"
	"github.com/frahmantamala/worktally/internal/core/metrics"
	"github.com/frahmantamala/worktally/internal/dashboard"
	"github.com/frahmantamala/worktally/internal/invitation"
	invitationPostgres "github.com/frahmantamala/worktally/internal/invitation/postgres"
	"github.com/frahmantamala/worktally/internal/mailer"
	"github.com/frahmantamala/worktally/internal/organization"
	organizationPostgres "github.com/frahmantamala/worktally/internal/organization/postgres"
	"github.com/frahmantamala/worktally/internal/project"
	projectPostgres "github.com/frahmantamala/worktally/internal/project/postgres"
	"github.com/frahmantamala/worktally/internal/timeentry"
	timeentryPostgres "github.com/frahmantamala/worktally/internal/timeentry/postgres"
	"github.com/frahmantamala/worktally/internal/timeoff"
	timeoffPostgres "github.com/frahmantamala/worktally/internal/timeoff/postgres"
	"github.com/frahmantamala/worktally/internal/transport"
	"github.com/frahmantamala/worktally/internal/transport/middleware"
	"github.com/frahmantamala/worktally/internal/transport/rest"
	"github.com/frahmantamala/worktally/internal/transport/swagger"
	"github.com/frahmantamala/worktally/internal/user"
	userPostgres "github.com/frahmantamala/worktally/internal/user/postgres"
)

type App struct {
	Config      *internal.Config
	Router      *chi.Mux
	Bus         *events.EventBus
	Metrics     *metrics.Metrics
	Sessions    *auth.Service
	RateLimiter *middleware.RateLimiter

	welcomeMail *mailer.AsyncSender
	logger      *slog.Logger
}

type options struct {
	sender  mailer.Sender
	openAPI *swagger.Document
	now     func() time.Time
}

type Option func(*options)

// WithMailSender replaces the configured SMTP or log sender.
func WithMailSender(s mailer.Sender) Option {
	return func(o *options) {
		o.sender = s
	}
}

func WithOpenAPI(doc *swagger.Document) Option {
	return func(o *options) {
		o.openAPI = doc
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func New(cfg *internal.Config, db *gorm.DB, logger *slog.Logger, opts ...Option) (*App, error) {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sender := o.sender
	if sender == nil {
		sender = mailer.New(mailer.Config{
			Enabled:  cfg.Mail.Enabled,
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			UseTLS:   cfg.Mail.UseTLS,
		}, logger)
	}

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New()
	}

	bus := events.NewEventBus(logger)
	events.RegisterAuditLog(bus, logger)
	if m != nil {
		m.CountEvents(bus)
	}

	welcomeMail := mailer.NewAsyncSender(sender, mailer.AsyncConfig{
		Workers:   cfg.Mail.AsyncWorkers,
		QueueSize: cfg.Mail.QueueSize,
	}, logger)
	invitation.RegisterWelcomeMail(bus, welcomeMail, cfg.App, logger)

	hasher := auth.NewBcryptHasher(cfg.Security.BCryptCost)
	sessions := auth.NewService(
		authPostgres.NewAuthRepository(db),
		auth.NewJWTTokenGenerator(cfg.Security.SessionSecret),
		hasher,
		cfg.Security.SessionTTL,
		logger,
		auth.WithClock(o.now),
	)

	users := user.NewService(userPostgres.NewUserRepository(db), sessions, hasher, logger, user.WithClock(o.now))
	orgs := organization.NewService(organizationPostgres.NewOrganizationRepository(db), sessions, hasher, bus, logger,
		organization.WithDefaultMaxUsers(cfg.Organization.DefaultMaxUsers),
		organization.WithClock(o.now))
	invites := invitation.NewService(invitationPostgres.NewInvitationRepository(db), orgs, sessions, hasher, sender, bus, cfg.App, logger,
		invitation.WithClock(o.now))
	entries := timeentry.NewService(timeentryPostgres.NewTimeEntryRepository(db), logger, timeentry.WithClock(o.now))
	projects := project.NewService(projectPostgres.NewProjectRepository(db), logger)
	timeOff := timeoff.NewService(timeoffPostgres.NewTimeOffRepository(db), bus, logger, timeoff.WithClock(o.now))
	board := dashboard.NewService(entries, timeOff, projects)

	base := transport.NewBaseHandler(logger)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, base, m)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:         auth.NewHandler(base, sessions),
		User:         user.NewHandler(base, users),
		Organization: organization.NewHandler(base, orgs),
		Invitation:   invitation.NewHandler(base, invites),
		TimeEntry:    timeentry.NewHandler(base, entries),
		Project:      project.NewHandler(base, projects),
		TimeOff:      timeoff.NewHandler(base, timeOff),
		Dashboard:    dashboard.NewHandler(base, board),
	}, rest.Options{
		DB:             sqlDB,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RBAC:           auth.NewRBACAuthorization(logger),
		RateLimiter:    limiter,
		Metrics:        m,
		MetricsPath:    cfg.Observability.Metrics.Path,
		OpenAPI:        o.openAPI,
		Logger:         logger,
	})

	return &App{
		Config:      cfg,
		Router:      router,
		Bus:         bus,
		Metrics:     m,
		Sessions:    sessions,
		RateLimiter: limiter,
		welcomeMail: welcomeMail,
		logger:      logger,
	}, nil
}

// Run starts background housekeeping until ctx ends.
func (a *App) Run(ctx context.Context) {
	if a.RateLimiter != nil {
		go a.RateLimiter.Run(ctx)
	}
}

// Shutdown waits for event subscribers, then flushes queued mail.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Bus.Drain(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain event bus: %w", err))
	}
	if err := a.welcomeMail.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown mail workers: %w", err))
	}
	return errors.Join(errs...)
}

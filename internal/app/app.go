// Package app builds the long-lived components from configuration and owns
// their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"clothsy/internal/config"
	"clothsy/internal/http/handlers"
	"clothsy/internal/live"
	applog "clothsy/internal/log"
	"clothsy/internal/notify"
	"clothsy/internal/postgrest"
	"clothsy/internal/repos"
	"clothsy/internal/server"
	"clothsy/internal/services"
	"clothsy/internal/store"
)

type App struct {
	Config  config.Config
	Store   *store.Store
	Auth    *services.AuthService
	Relay   *notify.Dispatcher
	Hub     *live.Hub
	Contact handlers.ContactSender

	db *sqlx.DB
}

// Tables opens the configured backend. db is nil for the supabase backend.
func Tables(cfg config.Config) (store.Tables, *sqlx.DB, error) {
	switch cfg.Backend {
	case config.BackendSupabase:
		return postgrest.Tables(postgrest.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.HTTPTimeout)), nil, nil
	case config.BackendSQLite:
		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			return store.Tables{}, nil, err
		}
		if cfg.SeedDemo {
			if err := repos.SeedDemo(db); err != nil {
				_ = db.Close()
				return store.Tables{}, nil, fmt.Errorf("seed demo data: %w", err)
			}
		}
		return repos.Tables(db), db, nil
	}
	return store.Tables{}, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Sinks returns the order notification sinks that are configured.
func Sinks(cfg config.Config) []notify.Sink {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	var sinks []notify.Sink
	if cfg.SheetsWebhookURL != "" {
		sinks = append(sinks, &notify.WebhookSink{URL: cfg.SheetsWebhookURL, Client: client})
	}
	if cfg.EmailJSEnabled() {
		sinks = append(sinks, &notify.EmailJSSink{
			ServiceID:  cfg.EmailJSServiceID,
			TemplateID: cfg.EmailJSTemplateID,
			PublicKey:  cfg.EmailJSPublicKey,
			PrivateKey: cfg.EmailJSPrivateKey,
			ToName:     cfg.EmailJSToName,
			Client:     client,
		})
	}
	return sinks
}

// New builds every component and performs the initial fetch.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	tables, db, err := Tables(cfg)
	if err != nil {
		return nil, err
	}
	admins, err := services.ParseAdminUsers(cfg.AdminUsers)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	a := &App{Config: cfg, db: db}
	a.Auth = services.NewAuthService(admins, cfg.JWTSecret, cfg.JWTTTL)
	if !a.Auth.Enabled() {
		applog.Warn(nil, "auth.disabled", errors.New("ADMIN_USERS is empty"), nil)
	}

	var opts []store.Option
	if sinks := Sinks(cfg); len(sinks) > 0 {
		a.Relay = notify.NewDispatcher(cfg.RelayQueue, cfg.HTTPTimeout, sinks...)
		opts = append(opts, store.WithRelay(a.Relay))
	}
	if cfg.FormspreeFormID != "" {
		a.Contact = &notify.FormspreeClient{FormID: cfg.FormspreeFormID, Client: &http.Client{Timeout: cfg.HTTPTimeout}}
	}

	a.Store = store.New(tables, opts...)
	a.Hub = live.NewHub(a.Store, 8)
	a.Store.Initialize(ctx)
	return a, nil
}

// Fiber builds the HTTP application on top of the components.
func (a *App) Fiber(opt server.Options) *fiber.App {
	opt.CookieSecure = opt.CookieSecure || a.Config.CookieSecure
	if len(opt.CORSOrigins) == 0 {
		opt.CORSOrigins = a.Config.Origins()
	}
	deps := handlers.NewDeps(a.Store, a.Auth, a.Contact, a.Hub, opt.CookieSecure)
	return server.New(deps, a.Auth, opt)
}

// Close drains pending notifications and releases the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.Relay != nil {
		errs = append(errs, a.Relay.Close(ctx))
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/coe-portal/config"
	"github.com/upb/coe-portal/middleware"
	"github.com/upb/coe-portal/navigation"
	"github.com/upb/coe-portal/repositories"
	"github.com/upb/coe-portal/repositories/memory"
	"github.com/upb/coe-portal/repositories/postgres"
	"github.com/upb/coe-portal/services/audit"
	"github.com/upb/coe-portal/session"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil unless SESSION_STORE=postgres
	Logger *zap.Logger

	// Repositories
	Accounts     repositories.AccountDirectory
	SessionStore repositories.SessionStore

	// Portal
	Composer *navigation.Composer
	Sessions *session.Provider
	Codec    *session.CookieCodec
	Audit    *audit.AuditService

	// Middleware
	SessionMiddleware *middleware.SessionMiddleware
	GateMiddleware    *middleware.GateMiddleware

	cancelWorkers context.CancelFunc
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	deps.cancelWorkers = cancel

	if err := deps.initAccounts(cfg); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize accounts: %w", err)
	}

	if err := deps.initNavigation(cfg); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize navigation: %w", err)
	}

	if err := deps.initSessionStore(ctx, workerCtx, cfg); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	if err := deps.initAudit(); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize audit: %w", err)
	}

	deps.initSessions(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initAccounts loads the account table from ACCOUNTS_FILE or the built-in default
func (d *Dependencies) initAccounts(cfg *config.Config) error {
	if cfg.Portal.AccountsFile == "" {
		d.Accounts = memory.NewDefaultAccountDirectory()
		d.Logger.Info("using built-in account table")
		return nil
	}

	dir, err := memory.LoadAccountsFile(cfg.Portal.AccountsFile)
	if err != nil {
		return err
	}
	d.Accounts = dir
	d.Logger.Info("loaded account table",
		zap.String("file", cfg.Portal.AccountsFile),
		zap.Int("accounts", dir.Len()))
	return nil
}

// initNavigation loads the menu table from MENU_FILE or the built-in default
func (d *Dependencies) initNavigation(cfg *config.Config) error {
	menus := navigation.DefaultMenus()
	if cfg.Portal.MenuFile != "" {
		loaded, err := navigation.LoadMenuFile(cfg.Portal.MenuFile)
		if err != nil {
			return err
		}
		menus = loaded
		d.Logger.Info("loaded menu table", zap.String("file", cfg.Portal.MenuFile))
	}

	d.Composer = navigation.NewComposer(menus)
	return nil
}

// initSessionStore opens the configured session storage backend and starts
// its cleanup worker
func (d *Dependencies) initSessionStore(ctx, workerCtx context.Context, cfg *config.Config) error {
	switch cfg.Session.Store {
	case config.SessionStorePostgres:
		db, err := postgres.NewDB(cfg.Database, d.Logger)
		if err != nil {
			return err
		}
		if err := db.InitSchema(ctx); err != nil {
			_ = db.Close()
			return err
		}

		store := postgres.NewSessionStore(db, d.Logger)
		if cfg.Session.IdleTTL > 0 {
			go store.StartCleanupWorker(workerCtx, cfg.Session.CleanupInterval, cfg.Session.IdleTTL)
		}

		d.DB = db
		d.SessionStore = store
		d.Logger.Info("using postgres session storage",
			zap.String("connection", cfg.Database.LogString()))

	default:
		store := memory.NewSessionStore(cfg.Session.MaxEntries, cfg.Session.IdleTTL)
		if cfg.Session.IdleTTL > 0 {
			go store.StartCleanupWorker(workerCtx, cfg.Session.CleanupInterval)
		}

		d.SessionStore = store
		d.Logger.Info("using in-memory session storage",
			zap.Int("max_entries", cfg.Session.MaxEntries),
			zap.Duration("idle_ttl", cfg.Session.IdleTTL))
	}

	return nil
}

// initAudit starts the asynchronous audit service writing to the logger
func (d *Dependencies) initAudit() error {
	d.Audit = audit.NewAuditService(audit.NewZapSink(d.Logger), d.Logger, audit.DefaultConfig())
	return d.Audit.Start()
}

// initSessions wires the session provider, cookie codec, gate and middleware
func (d *Dependencies) initSessions(cfg *config.Config) {
	d.Sessions = session.NewProvider(d.SessionStore, d.Accounts, d.Logger)
	d.Codec = session.NewCookieCodec(cfg.Session.Secret)

	d.SessionMiddleware = middleware.NewSessionMiddleware(d.Sessions, d.Codec, middleware.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	}, d.Logger)

	gate := session.NewGate(cfg.Portal.LoginPath, cfg.Portal.FallbackPath)
	d.GateMiddleware = middleware.NewGateMiddleware(gate, d.Audit, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.cancelWorkers != nil {
		d.cancelWorkers()
	}

	if d.Audit != nil {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	// Closing the postgres store closes the database connection
	if d.SessionStore != nil {
		if err := d.SessionStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close session store: %w", err))
		} else {
			d.Logger.Info("session store closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

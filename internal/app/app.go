package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/tilegen-backend/internal/data/db"
	"github.com/yungbote/tilegen-backend/internal/data/repos"
	apphttp "github.com/yungbote/tilegen-backend/internal/http"
	"github.com/yungbote/tilegen-backend/internal/observability"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/templates"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    repos.Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	config       *ConfigManager
	pg           *db.PostgresService
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func New(ctx context.Context, cfgFile string) (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading configuration...")
	mgr, err := NewConfigManager(cfgFile)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := mgr.Config()

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfigFromEnv(cfg.Env))
	metrics := observability.NewMetrics()

	pg, err := db.NewPostgresService(ctx, log, db.PostgresConfig{
		DSN:      cfg.PostgresDSN,
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		Name:     cfg.PostgresName,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	theDB := pg.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	if err := db.EnsureIndexes(theDB); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres indexes: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	reposet := repos.New(theDB, log)

	serviceset, err := wireServices(log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	// Fail fast on a broken template document rather than on first request.
	if _, err := serviceset.Templates.Load(ctx); err != nil {
		clients.Close()
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("load templates: %w", err)
	}

	handlerset := wireHandlers(log, cfg, serviceset, reposet, clients, metrics)
	handlerset.Health.
		WithCheck("postgres", pg.Ping).
		WithCheck("templates", func(ctx context.Context) error {
			_, err := serviceset.Templates.List(ctx)
			return err
		})
	if clients.Redis != nil {
		handlerset.Health.WithCheck("redis", clients.Redis.Ping)
	}
	middleware := wireMiddleware(log, serviceset, clients, metrics)
	server := wireRouter(log, cfg, handlerset, middleware, metrics, mgr.RateLimits)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		config:       mgr,
		pg:           pg,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background pieces: config watchers and the metrics
// listener. They stop when ctx is done or on Close.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Cfg.WatchConfig {
		a.config.Watch(a.Log)
		if f := a.Services.templatesFile; f != nil {
			err := f.Watch(ctx, a.Log, func() { revalidateTemplates(ctx, a.Log, a.Services.Templates) })
			if err != nil {
				a.Log.Warn("template watch unavailable", "path", f.Name(), "error", err)
			}
		}
	}

	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
}

// revalidateTemplates loads the template document eagerly so a bad edit is
// logged when it happens. Requests keep validating on version change.
func revalidateTemplates(ctx context.Context, log *logger.Logger, store *templates.Store) {
	list, err := store.Load(ctx)
	if err != nil {
		var le *templates.LoadError
		if errors.As(err, &le) {
			log.Error("template document invalid", "source", le.Source, "template_id", le.TemplateID, "reason", le.Reason, "error", le.Err)
			return
		}
		log.Error("template reload failed", "error", err)
		return
	}
	log.Info("templates reloaded", "count", len(list))
}

// Run serves HTTP until ctx is done, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("http server listening", "addr", a.Cfg.HTTPAddr)
		errCh <- a.Server.Run(a.Cfg.HTTPAddr)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	a.Log.Info("http server shutting down")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Clients.Close()
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/arrcenter/internal/config"
	"github.com/MrSnakeDoc/arrcenter/internal/display"
	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/views"
	"github.com/MrSnakeDoc/arrcenter/internal/index"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
	"github.com/MrSnakeDoc/arrcenter/internal/redis"
	"github.com/MrSnakeDoc/arrcenter/internal/resolver"
	"github.com/MrSnakeDoc/arrcenter/internal/scheduler"
	"github.com/MrSnakeDoc/arrcenter/internal/sources/homepage"
	filestore "github.com/MrSnakeDoc/arrcenter/internal/store/file"
	redisstore "github.com/MrSnakeDoc/arrcenter/internal/store/redis"
	sqlitestore "github.com/MrSnakeDoc/arrcenter/internal/store/sqlite"
	"github.com/MrSnakeDoc/arrcenter/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	store    domain.SettingsStore
	memIndex *index.MemoryIndex
	reloader *scheduler.SettingsReloader
	// cancelTasks aborts display resolutions still running at shutdown.
	cancelTasks context.CancelFunc
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	store, err := OpenStore(context.Background(), cfg, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings backend: %w", err)
	}
	loggerClient.Info("settings backend initialized",
		logger.String("backend", store.Name()))

	memIndex := index.NewMemoryIndex()

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewSettingsReloader(
		store,
		memIndex,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	prober := resolver.NewHTTPProber(cfg.ProbeTimeout, cfg.SkipTLSVerify)
	if cfg.SkipTLSVerify {
		loggerClient.Warn("TLS verification disabled for dashboard probes")
	}
	res := resolver.New(prober, loggerClient)

	taskCtx, cancelTasks := context.WithCancel(context.Background())
	controller := display.NewController(taskCtx, res, memIndex, loggerClient)

	pages, err := views.NewTemplates()
	if err != nil {
		cancelTasks()
		_ = store.Close()
		return nil, err
	}

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		MemoryIndex:   memIndex,
		Store:         store,
		Resolver:      res,
		Display:       controller,
		ProbeTimeout:  cfg.ProbeTimeout,
		Pages:         pages,
		ReloadTrigger: reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		store:       store,
		memIndex:    memIndex,
		reloader:    reloader,
		cancelTasks: cancelTasks,
	}, nil
}

// OpenStore builds the settings backend selected by cfg.SettingsBackend.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (domain.SettingsStore, error) {
	switch cfg.SettingsBackend {
	case config.BackendFile:
		store, err := filestore.New(cfg.SettingsFile)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = sqlitestore.DefaultPath()
		}
		store, err := sqlitestore.New(path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendRedis:
		// Fail fast if redis never comes up.
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil

	default:
		return nil, fmt.Errorf("unknown settings backend %q", cfg.SettingsBackend)
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting arrcenter v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.HomepageFile != "" {
		if _, err := homepage.Seed(ctx, homepage.NewLoader(a.cfg.HomepageFile), a.store, a.logger); err != nil {
			a.logger.Warn("homepage import failed, continuing with stored settings",
				logger.String("file", a.cfg.HomepageFile),
				logger.Error(err))
		}
	}

	// Load settings and start periodic refresh
	if err := a.reloader.Start(ctx); err != nil {
		a.close()
		return fmt.Errorf("failed to start settings reloader: %w", err)
	}
	a.logger.Info("settings reloader started",
		logger.String("backend", a.store.Name()),
		logger.Int("services_configured", a.memIndex.Count()),
		logger.Duration("interval", a.cfg.ReloadInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.reloader.Stop()
		a.close()
		return err
	}

	a.reloader.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.close()
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.close()
	a.logger.Info("✅ arrcenter stopped cleanly")
	return nil
}

// close cancels in-flight resolutions and releases the settings backend.
func (a *App) close() {
	a.cancelTasks()
	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close %s settings backend: %v", a.store.Name(), err)
	} else {
		a.logger.Info("✅ settings backend closed cleanly",
			logger.String("backend", a.store.Name()))
	}
	_ = a.logger.Sync()
}

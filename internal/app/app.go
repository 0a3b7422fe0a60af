package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keepmark/internal/config"
	"github.com/MrSnakeDoc/keepmark/internal/httpserver"
	"github.com/MrSnakeDoc/keepmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keepmark/internal/logger"
	"github.com/MrSnakeDoc/keepmark/internal/metadata"
	"github.com/MrSnakeDoc/keepmark/internal/redis"
	"github.com/MrSnakeDoc/keepmark/internal/scheduler"
	"github.com/MrSnakeDoc/keepmark/internal/sources/users"
	redisstore "github.com/MrSnakeDoc/keepmark/internal/store/redis"
	"github.com/MrSnakeDoc/keepmark/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	refresher   *scheduler.MetadataRefresher
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Load API tokens - fail fast on a broken users file
	usersConfig, err := users.NewLoader(cfg.UsersFile).Load()
	if err != nil {
		loggerClient.Fatal("failed to load users file",
			logger.String("file", cfg.UsersFile),
			logger.Error(err))
	}
	directory, err := users.NewDirectory(usersConfig)
	if err != nil {
		loggerClient.Fatal("invalid users file",
			logger.String("file", cfg.UsersFile),
			logger.Error(err))
	}
	loggerClient.Info("user directory loaded",
		logger.Int("users", directory.Count()))

	// Initialize Redis early - fail fast if unavailable
	redisClient, err := redis.New(redis.ConnectOptions{
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
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}

	store := redisstore.NewStore(redisClient)

	extractor := metadata.NewExtractor(metadata.Options{
		Timeout:      cfg.MetadataTimeout,
		UserAgent:    cfg.MetadataUserAgent,
		MaxBodyBytes: cfg.MetadataMaxBytes,
	}, loggerClient.With(logger.String("component", "metadata")))

	// Create manual refresh trigger channel
	refreshTrigger := make(chan struct{}, 1)

	refresher := scheduler.NewMetadataRefresher(
		store,
		extractor,
		loggerClient.With(logger.String("component", "refresher")),
		cfg.RefreshInterval,
		cfg.RefreshBatch,
		refreshTrigger,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		CORSOrigins:    cfg.CORSOrigins,
		RateBurst:      cfg.RateBurst,
		RatePerMin:     cfg.RatePerMin,
		Store:          store,
		Extractor:      extractor,
		Users:          directory,
		RefreshTrigger: refreshTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		refresher:   refresher,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting keepmark %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.refresher.Start(ctx)
	a.logger.Info("metadata refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval),
		logger.Int("batch", a.cfg.RefreshBatch))

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
		a.refresher.Stop()
		return err
	}

	a.refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ keepmark stopped cleanly")
	return nil
}

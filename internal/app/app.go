package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tush00nka/bbbab_chat/internal/config"
	"tush00nka/bbbab_chat/internal/handler"
	"tush00nka/bbbab_chat/internal/middleware"
	"tush00nka/bbbab_chat/internal/pkg/auth"
	"tush00nka/bbbab_chat/internal/pkg/httputils"
	"tush00nka/bbbab_chat/internal/repository"
	"tush00nka/bbbab_chat/internal/service"
	"tush00nka/bbbab_chat/internal/ws"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	rdb     *redis.Client
	hub     *ws.Hub
	limiter *middleware.IPRateLimiter
	server  *Server
}

// New connects to the database and optional Redis and assembles the
// service graph. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{cfg: cfg, log: log}
	httputils.SetLogger(log.Named("http"))

	db, err := repository.NewDB(cfg.DBDriver, cfg.DSN(), cfg.DBLogLevel)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := repository.Migrate(db); err != nil {
		a.Close()
		return nil, err
	}

	cache := repository.NewNoopChatCache()
	if cfg.RedisAddr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := a.rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		cache = repository.NewChatCacheRepository(a.rdb, cfg.CacheTTL)
	} else {
		log.Info("REDIS_ADDR not set, chat cache and presence disabled")
	}

	var (
		avatars   service.AvatarStorage
		uploadDir string
	)
	switch cfg.AvatarStorage {
	case "s3":
		s3Storage, err := service.NewS3AvatarStorage(ctx, cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		avatars = s3Storage
	default:
		local, err := service.NewLocalAvatarStorage(cfg.UploadDir, cfg.UploadPublicPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		avatars, uploadDir = local, local.Dir()
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	userRepo := repository.NewUserRepository(db)
	userService := service.NewUserService(userRepo, tokens, avatars, cfg.BcryptCost, log)
	friendService := service.NewFriendService(repository.NewFriendshipRepository(db), userRepo)
	chatService := service.NewChatService(repository.NewChatRepository(db), userRepo, cache, log)

	a.hub = ws.NewHub(chatService, log.Named("ws"), ws.HubOptions{
		MessagesPerSecond: cfg.WSMessagesPerSecond,
		Upgrader:          ws.NewUpgrader(cfg.AllowedOrigins(), cfg.IsDevelopment()),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg)
	metrics.RegisterRealtime(a.hub)

	a.limiter = middleware.NewIPRateLimiter(cfg.LoginRatePerMinute)

	a.server = NewServer(Routes{
		Users:            handler.NewUserHandler(userService, log),
		Friends:          handler.NewFriendHandler(friendService, log),
		Chats:            handler.NewChatHandler(chatService, log),
		Hub:              a.hub,
		Auth:             middleware.NewAuthenticator(tokens, metrics),
		Limiter:          a.limiter,
		Metrics:          metrics,
		Gatherer:         reg,
		Addr:             ":" + cfg.ServerPort,
		UploadDir:        uploadDir,
		UploadPublicPath: cfg.UploadPublicPath,
		AllowedOrigins:   cfg.AllowedOrigins(),
	}, log)

	return a, nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Run serves until ctx is cancelled, then drains HTTP traffic and closes
// every realtime connection.
func (a *App) Run(ctx context.Context) error {
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go a.limiter.Cleanup(cleanupCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Run()
	}()

	select {
	case err := <-errCh:
		a.hub.Shutdown()
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	// Hijacked connections are invisible to http.Server.Shutdown.
	a.hub.Shutdown()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return <-errCh
}

func (a *App) Close() error {
	if a.hub != nil {
		a.hub.Shutdown()
	}
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/tokenauth/internal/cache"
	"github.com/nkiryanov/tokenauth/internal/cache/lru"
	"github.com/nkiryanov/tokenauth/internal/cache/redis"
	"github.com/nkiryanov/tokenauth/internal/db"
	"github.com/nkiryanov/tokenauth/internal/handlers"
	"github.com/nkiryanov/tokenauth/internal/logger"
	"github.com/nkiryanov/tokenauth/internal/repository"
	"github.com/nkiryanov/tokenauth/internal/repository/memory"
	"github.com/nkiryanov/tokenauth/internal/repository/postgres"
	"github.com/nkiryanov/tokenauth/internal/service/auth"
	"github.com/nkiryanov/tokenauth/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/tokenauth/internal/service/janitor"
	"github.com/nkiryanov/tokenauth/internal/service/user"
	"github.com/nkiryanov/tokenauth/internal/stats"
)

const (
	shutdownTimeout = 5 * time.Second
	cacheTTL        = time.Minute
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	janitor *janitor.Janitor
	stats   *stats.StatsServer

	// Release connections in reverse order
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: l}
	initialized := false
	defer func() {
		if !initialized {
			app.Close()
		}
	}()

	// Initialize repositories
	var storage repository.Storage
	switch c.DatabaseDSN {
	case "":
		l.Warn("Database not set, users and tokens are kept in memory")
		storage = memory.NewStorage()
	default:
		// Connect to the database and run migrations
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		storage = postgres.NewStorage(pool)
	}

	tokenCache, err := app.newCache(ctx, c)
	if err != nil {
		return nil, err
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey: c.SecretKey,
		TTL:       c.TokenTTL,
		Cache:     tokenCache,
		CacheTTL:  cacheTTL,
		Logger:    l,
	}, storage.Token())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{}, tokenManager, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(storage.User())

	app.Handler = handlers.NewRouter(
		handlers.RouterConfig{AuthTimeout: c.AuthTimeout},
		authService,
		userService,
		l,
	)

	if c.PurgeInterval > 0 {
		app.janitor = janitor.New(janitor.Config{Interval: c.PurgeInterval}, tokenManager, l)
	}
	if c.MetricsAddr != "" {
		app.stats = stats.NewStatsServer(c.MetricsAddr)
	}

	initialized = true
	return app, nil
}

// Redis cache is preferred: it is shared and revocation on any instance invalidates it
func (s *ServerApp) newCache(ctx context.Context, c *Config) (cache.TokenCache, error) {
	switch {
	case c.RedisURL != "":
		rdb, err := redis.Connect(ctx, redis.ConnectionInfo{URL: c.RedisURL, DialTimeout: c.AuthTimeout, Timeout: c.AuthTimeout})
		if err != nil {
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		s.logger.Info("Redis token cache enabled")
		return redis.New(rdb, ""), nil

	case c.CacheSize > 0:
		s.logger.Info("In-process token cache enabled", "size", c.CacheSize)
		return lru.New(c.CacheSize, cacheTTL), nil

	default:
		return nil, nil
	}
}

// Close connections opened by the app
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server, metrics server and janitor
// All of them stopped gracefully on context cancellation or if any of them fails
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", "address", s.ListenAddr)
		return ignoreServerClosed(httpServer.ListenAndServe())
	})
	g.Go(func() error {
		<-ctx.Done()
		s.shutdown("HTTP server", httpServer.Shutdown)
		return nil
	})

	if s.stats != nil {
		g.Go(func() error {
			s.logger.Info("Starting metrics server")
			return ignoreServerClosed(s.stats.ListenAndServe())
		})
		g.Go(func() error {
			<-ctx.Done()
			s.shutdown("Metrics server", s.stats.Shutdown)
			return nil
		})
	}

	if s.janitor != nil {
		g.Go(func() error {
			<-s.janitor.Run(ctx)
			return nil
		})
	}

	return g.Wait()
}

func (s *ServerApp) shutdown(name string, shutdownFn func(context.Context) error) {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := shutdownFn(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
		s.logger.Error(name+" shutdown timeout exceeded, forcing shutdown...")
	}
	s.logger.Info(name + " stopped")
}

func ignoreServerClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Package main initializes and starts the HaloLight auth API server,
// setting up configuration, logging, user and session storage,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/halolight/console/internal/certgen"
	"github.com/halolight/console/internal/config"
	"github.com/halolight/console/internal/db"
	"github.com/halolight/console/internal/logger"
	"github.com/halolight/console/internal/middleware"
	"github.com/halolight/console/internal/repository"
	"github.com/halolight/console/internal/server/handler/http"
	"github.com/halolight/console/internal/service"
	"github.com/halolight/console/internal/session"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const (
	cleanInterval = time.Hour
	shutdownWait  = 10 * time.Second
)

// backend is the storage selected by configuration.
type backend struct {
	users    service.UserRepository
	sessions session.Store
	purge    db.PurgeFunc
	close    func()
}

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init storage", zap.Error(err))
	}
	defer store.close()

	// Periodically drop expired sessions. Redis expires keys itself.
	if store.purge != nil {
		db.StartSessionCleaner(ctx, store.purge, cleanInterval, zapLogger)
	}

	authService := service.NewAuthService(store.users, store.sessions, service.Options{
		SessionTTL:       options.SessionTTL.Std(),
		SocialLoginDelay: options.SocialLoginDelay.Std(),
	})
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: options.RateLimitRPS,
		Burst:             options.RateLimitBurst,
		Message:           service.MsgTooManyRequests,
	})
	go pruneLimiter(ctx, limiter)

	routerCfg := http.RouterConfig{
		Metrics:  middleware.NewMetrics(reg),
		Gatherer: reg,
		Limiter:  limiter,
	}
	if options.APIBackendURL != "" {
		proxy, err := http.NewProxy(options.APIBackendURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("invalid api backend url", zap.Error(err))
		}
		routerCfg.Proxy = proxy
		zapLogger.Info("proxying /api", zap.String("backend", options.APIBackendURL))
	}

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           http.NewRouter(authHandler, zapLogger, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	certFile, keyFile, err := tlsFiles(options)
	if err != nil {
		zapLogger.Fatal("failed to prepare TLS", zap.Error(err))
	}
	if certFile != "" {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	go func() {
		zapLogger.Info("starting server",
			zap.String("addr", options.Port),
			zap.Bool("tls", certFile != ""),
			zap.String("deploy_target", options.DeployTarget),
		)
		var err error
		if certFile != "" {
			err = server.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("shutdown error", zap.Error(err))
	}
}

// openBackend selects PostgreSQL when a DSN is set, otherwise in-memory
// users with Redis or in-memory sessions.
func openBackend(ctx context.Context, options *config.Options, log *zap.Logger) (*backend, error) {
	seed := repository.DefaultUsers()

	if options.DatabaseDSN != "" {
		pg, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		users := repository.NewPostgresAuthRepository(pg)
		if err := users.Seed(ctx, seed); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("seed users: %w", err)
		}
		log.Info("using PostgreSQL for users and sessions")
		return &backend{
			users:    users,
			sessions: repository.NewPostgresSessionRepository(pg),
			purge:    db.PurgeExpiredSessions(pg),
			close:    func() { _ = pg.Close() },
		}, nil
	}

	users, err := repository.NewMemoryAuthRepository(seed, bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if options.RedisURL != "" {
		rs, err := session.NewRedisStore(options.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("using Redis for sessions")
		return &backend{
			users:    users,
			sessions: rs,
			close:    func() { _ = rs.Close() },
		}, nil
	}

	log.Info("using in-memory users and sessions")
	mem := session.NewMemoryStore()
	return &backend{
		users:    users,
		sessions: mem,
		purge:    mem.DeleteExpired,
		close:    func() {},
	}, nil
}

// tlsFiles returns the certificate and key to serve with, generating a
// development pair when dev TLS is on. Empty paths mean plain HTTP.
func tlsFiles(options *config.Options) (string, string, error) {
	if !options.TLSEnabled() {
		return "", "", nil
	}
	if options.TLSCert != "" {
		return options.TLSCert, options.TLSKey, nil
	}
	paths, err := certgen.EnsureDevCerts(options.CertsDir, certgen.DefaultHosts)
	if err != nil {
		return "", "", err
	}
	return paths.ServerCert, paths.ServerKey, nil
}

func pruneLimiter(ctx context.Context, l *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune(10 * time.Minute)
		}
	}
}

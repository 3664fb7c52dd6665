// Command contacts-server starts the contacts HTTP API.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/contacts-api/internal/auth"
	"github.com/and161185/contacts-api/internal/config"
	"github.com/and161185/contacts-api/internal/limiter"
	"github.com/and161185/contacts-api/internal/migrate"
	"github.com/and161185/contacts-api/internal/repository/postgres"
	grpcserver "github.com/and161185/contacts-api/internal/server/grpc"
	httpserver "github.com/and161185/contacts-api/internal/server/http"
	"github.com/and161185/contacts-api/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const healthInterval = 5 * time.Second

// newLogger builds the JSON production logger, or the console one in dev mode.
func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// main loads configuration, runs migrations, and serves the HTTP API.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Dev)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN, logger); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	contactRepo := postgres.NewContactRepo(db)

	var lim limiter.Limiter = limiter.Noop{}
	if cfg.LoginMaxFails > 0 {
		lim = limiter.NewPG(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlock)
	}

	// Services
	tokens := auth.NewTokens([]byte(cfg.JWTKey), cfg.TokenTTL)
	authSvc := service.NewAuthService(userRepo, tokens, lim)
	contactSvc := service.NewContactService(contactRepo)

	api := httpserver.New(authSvc, contactSvc, logger)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          zap.NewStdLog(logger),
	}

	errCh := make(chan error, 2)
	go func() {
		if cfg.TLS() {
			logger.Info("listening (TLS)", zap.String("addr", cfg.Addr))
			errCh <- srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Health (optional)
	var hs *grpcserver.Health
	if cfg.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			logger.Fatal("listen health", zap.Error(err))
		}
		hs = grpcserver.NewHealth(logger, cfg.Dev)
		go hs.Watch(ctx, db, healthInterval)
		go func() {
			logger.Info("health listening", zap.String("addr", cfg.HealthAddr))
			errCh <- hs.Serve(lis)
		}()
	}

	// Wait for stop
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if hs != nil {
		hs.Stop(cfg.ShutdownTimeout)
	}
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
		_ = srv.Close()
	}

	logger.Info("shutdown complete")
}

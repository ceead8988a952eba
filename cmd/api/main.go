package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/bank-cards/internal/auth"
	"github.com/Dan9191/bank-cards/internal/config"
	"github.com/Dan9191/bank-cards/internal/handler"
	"github.com/Dan9191/bank-cards/internal/metrics"
	"github.com/Dan9191/bank-cards/internal/middleware"
	"github.com/Dan9191/bank-cards/internal/repository"
	"github.com/Dan9191/bank-cards/internal/scheduler"
	"github.com/Dan9191/bank-cards/internal/service"
	"github.com/Dan9191/bank-cards/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var store service.Store
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		store = repository.NewMemoryRepository()
	default:
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		if err := repository.Migrate(ctx, db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		store = repository.NewRepository(db)
	}

	// Initialize layers
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	svc := service.NewService(store, tokens, auth.NewPasswordHasher(cfg.BcryptCost), logger,
		service.WithNotifier(email.NewSender(cfg, logger)),
		service.WithRecorder(metrics.NewRecorder()),
	)
	if err := svc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Fatalf("Failed to create bootstrap admin: %v", err)
	}
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger), metrics.InstrumentHandler)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	h.Register(r, middleware.Authenticate(tokens, store, logger))

	// Start expiration sweep
	sweeper, err := scheduler.New(cfg.SweepSchedule, svc, logger)
	if err != nil {
		logger.Fatalf("Failed to create scheduler: %v", err)
	}
	sweeper.RunOnce(ctx)
	sweeper.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	sweeper.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paper-trading-go/internal/config"
	"paper-trading-go/internal/database"
	"paper-trading-go/internal/logger"
	"paper-trading-go/internal/quote"
	"paper-trading-go/internal/server"
	"paper-trading-go/internal/session"
	"paper-trading-go/internal/trading"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// A .env file is optional; the config file and environment still apply.
	_ = godotenv.Load()

	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	startingCash, err := decimal.NewFromString(cfg.Trading.StartingCash)
	if err != nil {
		log.Fatal("Invalid starting cash amount", zap.String("value", cfg.Trading.StartingCash), zap.Error(err))
	}

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated")

	// Pick the session store backend
	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		sessions, err = session.NewRedisStore(cfg.Session.RedisAddr, cfg.Session.RedisDB, cfg.Session.TTL)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		log.Info("Using redis session store", zap.String("addr", cfg.Session.RedisAddr))
	case "memory":
		sessions = session.NewMemoryStore(cfg.Session.TTL)
		log.Info("Using in-memory session store")
	default:
		log.Fatal("Unknown session backend", zap.String("backend", cfg.Session.Backend))
	}

	// Quote provider client and the trading service on top of it
	quotes := quote.NewClient(&cfg.Quote, log)
	svc := trading.NewService(db, quotes, log, startingCash)

	router := server.NewRouter(log, svc, sessions, cfg.Server.TemplateGlob)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting web server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Web server failed", zap.Error(err))
		}
	}()

	// Wait for a shutdown signal, then drain in-flight requests.
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Shutdown did not complete cleanly", zap.Error(err))
	}

	log.Info("Server has been shut down")
}

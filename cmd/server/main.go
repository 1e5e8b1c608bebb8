package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/workhub/internal/api"
	"github.com/npezzotti/workhub/internal/auth"
	"github.com/npezzotti/workhub/internal/config"
	"github.com/npezzotti/workhub/internal/database"
	"github.com/npezzotti/workhub/internal/server"
	"github.com/npezzotti/workhub/internal/stats"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	var allowedOrigins stringSliceFlag
	flag.StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "server address")
	flag.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "database connection string")
	flag.StringVar(&cfg.SigningSecret, "signing-key", cfg.SigningSecret, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "lifetime of issued access tokens")
	flag.DurationVar(&cfg.ChatIdleTimeout, "chat-idle-timeout", cfg.ChatIdleTimeout, "idle time before a chat session is pinged")
	flag.IntVar(&cfg.ChatHistoryLimit, "chat-history", cfg.ChatHistoryLimit, "number of messages replayed when joining a chat")
	flag.BoolVar(&cfg.Migrate, "migrate", cfg.Migrate, "apply database migrations on startup")
	flag.BoolVar(&cfg.Dev, "dev", cfg.Dev, "development logging")
	flag.Parse()

	if len(allowedOrigins) > 0 {
		cfg.AllowedOrigins = allowedOrigins
	}

	logger, err := newLogger(cfg.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	err = run(cfg, logger)
	if err != nil {
		logger.Error("server exited", zap.Error(err))
	}
	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

// run starts every component and blocks until a signal or a server error.
// Everything it opens is released before it returns.
func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	dbConn, err := database.NewPgRepository(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("db close", zap.Error(err))
		}
	}()

	if cfg.Migrate {
		if err := dbConn.Migrate(); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
		logger.Info("database migrations applied")
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.Run()
	defer statsUpdater.Stop()

	verifier := auth.NewAuthenticator(cfg.SigningKey, dbConn)

	chatServer, err := server.NewChatServer(logger.Named("chat"), dbConn, verifier, statsUpdater, server.Options{
		IdleTimeout:  cfg.ChatIdleTimeout,
		HistoryLimit: cfg.ChatHistoryLimit,
	})
	if err != nil {
		return fmt.Errorf("new chat server: %w", err)
	}

	srv := api.NewWorkhubApp(mux, logger, chatServer, dbConn, verifier, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigs:
		logger.Info("received signal", zap.Stringer("signal", sig))
	case serveErr = <-errCh:
		logger.Error("server", zap.Error(serveErr))
	}

	shutDownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}

	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Error("chat server shutdown", zap.Error(err))
	}

	logger.Info("shutdown complete")

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}

	return nil
}

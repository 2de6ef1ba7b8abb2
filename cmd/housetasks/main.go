package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"housetasks/internal/auth"
	"housetasks/internal/server"
	"housetasks/internal/storage/sqlite"
	"housetasks/internal/util"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	addrFlag := flag.String("addr", util.EnvOrDefault("HOUSETASKS_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("HOUSETASKS_DB_PATH", "data/housetasks.db"), "Path to sqlite database file")
	staticFlag := flag.String("static", util.EnvOrDefault("HOUSETASKS_STATIC_DIR", "web/dist"), "Directory with built frontend")
	secretFlag := flag.String("jwt-secret", util.EnvOrDefault("HOUSETASKS_JWT_SECRET", ""), "Secret key for session tokens")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store, err := sqlite.Open(*dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	tokenConfig := auth.DefaultConfig()
	if *secretFlag != "" {
		tokenConfig.SecretKey = *secretFlag
	} else {
		logger.Warn("HOUSETASKS_JWT_SECRET not set; using the development default")
	}
	tokens := auth.NewTokenManager(tokenConfig)

	srv := server.New(store, tokens, logger, *staticFlag)

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

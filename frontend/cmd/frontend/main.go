package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itchan-dev/strapikit/frontend/internal/router"
	"github.com/itchan-dev/strapikit/frontend/internal/setup"
	"github.com/itchan-dev/strapikit/shared/config"
	"github.com/itchan-dev/strapikit/shared/logger"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 2 * time.Minute // uploads are streamed through
	shutdownTimeout = 10 * time.Second
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.SetupDependencies(ctx, cfg)
	if err != nil {
		logger.Log.Error("failed to set up dependencies", "error", err)
		os.Exit(1)
	}

	server := configureServer(cfg.Public.Frontend.Port, router.New(deps))
	go func() {
		logger.Log.Info("starting frontend", "addr", server.Addr, "cms", cfg.Public.URL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
	if err := deps.Close(shutdownCtx); err != nil {
		logger.Log.Error("failed to release dependencies", "error", err)
	}
}

func configureServer(defaultPort string, handler http.Handler) *http.Server {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

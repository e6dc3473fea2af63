package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/novacarriers/claimdesk/internal/api"
	"github.com/novacarriers/claimdesk/internal/config"
	"github.com/novacarriers/claimdesk/internal/engine"
	"github.com/novacarriers/claimdesk/internal/store"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := store.OpenBackend(ctx, cfg)
	if err != nil {
		slog.Error("open store backend", "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	s := store.New(backend)

	// Build engine dependencies.
	modelClient := engine.NewModelClient(cfg)
	extractor := engine.NewExtractor(cfg)
	intake := engine.NewIntakePipeline(extractor, engine.NewReportGenerator(modelClient))
	composer := engine.NewDraftComposer(modelClient)

	srv := api.New(s, intake, composer, api.WithCORSOrigin(cfg.CORSOrigin))
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("claimdesk server listening", "addr", "http://localhost:"+cfg.Port, "stubs", cfg.UseStubs())
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

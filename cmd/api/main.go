// Package main is the entry point for the fleet HOS API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/pkordes/fleet-hos/internal/app"
	"github.com/pkordes/fleet-hos/internal/config"
	"github.com/pkordes/fleet-hos/internal/handler"
	"github.com/pkordes/fleet-hos/internal/middleware"
)

// maxBodyBytes caps request bodies; the only body this API accepts is an
// assignment check.
const maxBodyBytes = 64 << 10

func main() {
	// --- Config -----------------------------------------------------------
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		slog.Error("configuration error", "error", "required environment variables not set: JWT_SECRET")
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Stores and services ----------------------------------------------
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	slog.Info("database connection established", "redis_cache", a.Redis != nil, "ors", cfg.ORS.APIKey != "")

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit. Tenant auth is applied per route group by Routes.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodyBytes))

	srv := handler.NewServer(handler.Services{
		HOS:         a.HOS,
		Timelines:   a.Conflicts,
		Suggestions: a.Suggestions,
		Fleet:       a.Fleet,
		Export:      a.Export,
	}, logger)
	srv.Routes(r, middleware.NewTenantAuth([]byte(cfg.JWTSecret), logger))

	// --- HTTP Server ------------------------------------------------------
	// Fleet-wide endpoints fan out per driver, so writes get more headroom
	// than reads.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

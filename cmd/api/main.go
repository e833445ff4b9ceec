package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/voiceui/internal/api"
	"github.com/nikhilbhutani/voiceui/internal/api/handlers"
	"github.com/nikhilbhutani/voiceui/internal/api/middleware"
	"github.com/nikhilbhutani/voiceui/internal/cache"
	"github.com/nikhilbhutani/voiceui/internal/config"
	"github.com/nikhilbhutani/voiceui/internal/llm"
	"github.com/nikhilbhutani/voiceui/internal/stt"
	"github.com/nikhilbhutani/voiceui/internal/uiagent"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	ctx := context.Background()

	// One transcription backend for the whole process.
	transcriber, err := stt.NewProvider(ctx, cfg.STT)
	if err != nil {
		slog.Error("failed to create stt provider", "backend", cfg.STT.Backend, "error", err)
		os.Exit(1)
	}
	if c, ok := transcriber.(io.Closer); ok {
		defer c.Close()
	}

	gw := llm.NewGateway(cfg.LLM)
	checks := map[string]handlers.Checker{}
	if p, err := gw.Provider("ollama"); err == nil {
		if pinger, ok := p.(interface{ Ping(context.Context) error }); ok {
			checks["ollama"] = pinger.Ping
		}
	}

	opts := uiagent.Options{
		Mode:       cfg.UIAgent.Mode,
		Model:      cfg.LLM.DefaultModel,
		JSONFormat: cfg.UIAgent.JSONFormat,
		CacheTTL:   cfg.UIAgent.CacheTTL,
	}

	// Redis connection (optional)
	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, running without cache", "error", err)
		} else {
			c := cache.NewCache(rdb, "uiagent:")
			opts.Cache = c
			checks["redis"] = c.Ping
		}
	}

	deps := api.Deps{
		STT:     transcriber,
		Gateway: gw,
		UIAgent: uiagent.NewService(gw, opts),
		Checks:  checks,
	}

	stop := make(chan struct{})
	if cfg.Server.RateLimitRPS > 0 {
		deps.Limiter = middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
		go deps.Limiter.Cleanup(stop)
	}

	handler := api.NewRouter(cfg, deps).Setup()

	// Transcription and generation can each run for minutes.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.STT.Timeout + cfg.LLM.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server",
			"addr", cfg.Addr(),
			"stt", transcriber.Name(),
			"ui_agent_mode", cfg.UIAgent.Mode,
			"model", cfg.LLM.DefaultModel,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	close(stop)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

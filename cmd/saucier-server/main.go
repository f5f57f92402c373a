// Package main provides the HTTP server for saucier.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saucier-dev/saucier/internal/cache"
	"github.com/saucier-dev/saucier/internal/cli"
	"github.com/saucier-dev/saucier/internal/config"
	"github.com/saucier-dev/saucier/internal/llm"
	"github.com/saucier-dev/saucier/internal/server"
	"github.com/saucier-dev/saucier/internal/service"
)

func main() {
	configFile := flag.String("config", "", "YAML config file overlaying environment settings")
	flag.Parse()

	cfg := config.Load()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(cfg, *configFile)
		if err != nil {
			slog.Error("failed to load config file", "error", err)
			os.Exit(1)
		}
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	slog.SetDefault(logger)
	defer func() {
		_ = closeLog()
	}()

	slog.Info("starting saucier-server", "addr", cfg.ServerAddr, "store", cfg.StoreBackend)

	connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	stores, err := cli.OpenStores(connectCtx, cfg)
	cancel()
	if err != nil {
		slog.Error("failed to open vector store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		slog.Error("failed to init embedder", "error", err)
		os.Exit(1)
	}
	model, err := llm.NewModel(cfg)
	if err != nil {
		slog.Error("failed to init model", "error", err)
		os.Exit(1)
	}

	sc := cache.NewSemantic(embedder, stores.Cache, cache.Options{
		MaxDistance: cfg.CacheMaxDistance,
		Limit:       cfg.CacheLimit,
		Logger:      logger,
	})

	svcs := server.Services{
		Search: service.NewSearchService(stores.Recipes, embedder, sc, service.SearchOptions{
			Limit:            cfg.SearchLimit,
			RangeMaxDistance: cfg.RangeMaxDistance,
			CacheTTL:         cfg.CacheTTL,
			Logger:           logger,
		}),
		Ingest: service.NewIngestService(stores.Recipes, embedder, service.IngestOptions{
			Concurrency: cfg.IngestConcurrency,
			RateLimit:   cfg.IngestRateLimit,
			Logger:      logger,
		}),
		Answer: service.NewAnswerService(stores.Exchanges, embedder, model, service.AnswerOptions{
			MaxDistance: cfg.AnswerMaxDistance,
			Logger:      logger,
		}),
		Chat: service.NewChatService(stores.Sessions, embedder, model, service.ChatOptions{
			SystemPrompt: cfg.ChatSystemPrompt,
			EmbedScope:   cfg.ChatEmbedScope,
			Logger:       logger,
		}),
	}

	srv := server.New(cfg.ServerAddr, svcs, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/marketcraft/marketcraft/internal/catalog"
	"github.com/marketcraft/marketcraft/internal/config"
	"github.com/marketcraft/marketcraft/internal/daemon"
	"github.com/marketcraft/marketcraft/internal/eval"
	"github.com/marketcraft/marketcraft/internal/leaderboard"
	"github.com/marketcraft/marketcraft/internal/llm"
	"github.com/marketcraft/marketcraft/internal/player"
	"github.com/marketcraft/marketcraft/internal/queue"
	"github.com/marketcraft/marketcraft/internal/scheduler"
	"github.com/marketcraft/marketcraft/internal/storage/local"
	"github.com/marketcraft/marketcraft/internal/storage/sqlite"
)

const (
	pidFileName = "marketcraftd.pid"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Ensure ~/.marketcraft directory exists
	mcDir, err := config.EnsureMarketcraftDir()
	if err != nil {
		return fmt.Errorf("ensure marketcraft dir: %w", err)
	}

	// Load configuration; environment variables override for server deploys
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	env, err := config.Load()
	if err != nil {
		return fmt.Errorf("load environment overrides: %w", err)
	}
	cfg.ApplyEnv(env)

	// Setup logging
	logLevel := parseLogLevel(cfg.Daemon.LogLevel)
	logFile, err := setupLogging(mcDir, logLevel)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	// Write PID file
	pidPath := filepath.Join(mcDir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	// Content directory (config value, then current dir, then ~/.marketcraft)
	contentDir := cfg.ContentDir
	if contentDir == "" {
		contentDir = "./content"
		if _, err := os.Stat(contentDir); os.IsNotExist(err) {
			contentDir = filepath.Join(mcDir, "content")
		}
	}

	registry := catalog.NewRegistry(catalog.NewLoader(contentDir))
	if err := registry.Load(); err != nil {
		return fmt.Errorf("load content: %w", err)
	}

	// Player saves
	saves, err := local.NewStore(filepath.Join(mcDir, "saves"))
	if err != nil {
		return fmt.Errorf("open save store: %w", err)
	}
	playerStore := player.NewLocalStore(saves)

	// Attempt ledger
	db, err := sqlite.Open(filepath.Join(mcDir, "attempts", "attempts.db"))
	if err != nil {
		return fmt.Errorf("open attempt db: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate attempt db: %w", err)
	}
	attempts := sqlite.NewAttemptStore(db)

	// Evaluation pipeline
	remote := setupEvaluation(cfg)
	orchestrator := eval.NewOrchestrator(remote, cfg.Judging.Tuning(), slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional shared leaderboard
	var (
		publisher player.ScorePublisher
		board     daemon.Scoreboard
	)
	if cfg.Leaderboard.Enabled {
		conn, err := queue.NewConnection(cfg.Leaderboard.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer conn.Close()
		publisher = queue.NewProducer(conn)

		store, err := leaderboard.NewStore(ctx, cfg.Leaderboard.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect leaderboard db: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure leaderboard schema: %w", err)
		}
		board = store

		worker := leaderboard.NewWorker(conn, store, slog.Default())
		if err := worker.Start(ctx); err != nil {
			return fmt.Errorf("start leaderboard worker: %w", err)
		}
		defer worker.Stop()
	}

	// Game service
	game := player.NewService(player.Config{
		Store:     playerStore,
		Catalog:   registry,
		Evaluator: orchestrator,
		Attempts:  attempts,
		Publisher: publisher,
		Logger:    slog.Default(),
	})

	// Background regeneration
	interval := time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second
	scheduler.New(game, interval, slog.Default()).Start(ctx)

	// HTTP server
	server := daemon.NewServer(daemon.ServerConfig{
		Config:   cfg,
		Game:     game,
		Attempts: attempts,
		Board:    board,
		Catalog:  registry,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		cancel()
		close(done)
	}()

	// Start server
	if err := server.Start(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

// setupEvaluation builds the provider fallback chain from config. Returns
// nil when no provider is usable, which forces heuristic grading.
func setupEvaluation(cfg *config.LocalConfig) eval.RemoteEvaluator {
	registry := llm.NewRegistry()

	for _, name := range cfg.Evaluation.Chain {
		providerCfg, ok := cfg.Evaluation.Providers[name]
		if !ok || !providerCfg.Enabled {
			continue
		}

		switch name {
		case "textpool":
			provider := llm.NewTextPoolProvider(llm.TextPoolConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
			registry.Register(name, llm.NewResilientProvider(provider, llm.DefaultResilientConfig()))
			slog.Info("registered evaluation provider", "name", name)

		case "gemini":
			if providerCfg.APIKey == "" {
				slog.Debug("gemini provider enabled but no API key set")
				continue
			}
			provider := llm.NewGeminiProvider(llm.GeminiConfig{
				APIKey: providerCfg.APIKey,
				Models: providerCfg.Models,
			})
			registry.Register(name, llm.NewResilientProvider(provider, llm.DefaultResilientConfig()))
			slog.Info("registered evaluation provider", "name", name, "models", providerCfg.Models)

		default:
			slog.Warn("unknown evaluation provider in chain", "name", name)
		}
	}

	if len(registry.List()) == 0 {
		slog.Warn("no evaluation providers configured, grading falls back to heuristics")
		return nil
	}
	return eval.NewClient(registry, slog.Default())
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogging(mcDir string, level slog.Level) (*os.File, error) {
	logPath := filepath.Join(mcDir, "logs", "marketcraftd.log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: level,
	})

	// Also log to stderr for foreground mode
	multiHandler := &multiHandler{
		handlers: []slog.Handler{
			handler,
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}),
		},
	}

	slog.SetDefault(slog.New(multiHandler))

	return logFile, nil
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", pid)), 0644)
}

// multiHandler logs to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

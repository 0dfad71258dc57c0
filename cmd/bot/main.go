// Peer-search bot for the School 21 community.
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
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/ashureev/peerbot/internal/config"
	"github.com/ashureev/peerbot/internal/engine"
	"github.com/ashureev/peerbot/internal/membership"
	"github.com/ashureev/peerbot/internal/middleware"
	"github.com/ashureev/peerbot/internal/store"
	"github.com/ashureev/peerbot/internal/transport"
	"github.com/ashureev/peerbot/web"
)

// defaultLevels seeds the level vocabulary on an empty database.
var defaultLevels = []string{"Junior", "Middle", "Senior"}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting bot", "port", cfg.Port, "dev", cfg.IsDevelopment())

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if err := seedLevels(context.Background(), repo); err != nil {
		slog.Error("Failed to seed levels", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wire either the real Telegram gateway or an in-process one for
	// token-less development runs.
	var group membership.Gateway
	var bot *tgbotapi.BotAPI
	var approver transport.Approver
	if cfg.BotToken != "" {
		bot, err = tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			slog.Error("Failed to connect to Telegram", "error", err)
			os.Exit(1)
		}
		tg := membership.NewTelegram(bot, cfg.GroupID)
		group = tg
		approver = tg
		slog.Info("Telegram connected", "bot", bot.Self.UserName)
	} else {
		group = membership.NewStatic("")
		slog.Info("No bot token configured, running with in-process membership")
	}

	eng := engine.New(repo, repo, group, cfg.PageSize, logger)

	if bot != nil {
		poller := transport.NewTelegramBot(bot, eng, repo, approver, cfg.GroupID, logger)
		go func() {
			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Telegram poller stopped", "error", err)
				stop()
			}
		}()
	}

	startSessionSweeper(ctx, repo, cfg.SessionTTL)
	slog.Info("Session sweeper started", "session_ttl", cfg.SessionTTL)

	console := transport.NewConsoleHandler(eng, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Get("/ws/console", console.ServeHTTP)
	r.Handle("/*", web.ConsolePage())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket connections stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Bot stopped successfully")
}

// seedLevels ensures the level vocabulary exists before the first
// registration asks for it.
func seedLevels(ctx context.Context, repo store.Repository) error {
	levels, err := repo.ListLevels(ctx)
	if err != nil {
		return err
	}
	if len(levels) > 0 {
		return nil
	}
	for _, level := range defaultLevels {
		if err := repo.EnsureLevel(ctx, level); err != nil {
			return err
		}
	}
	return nil
}

// startSessionSweeper deletes idle sessions in the background.
func startSessionSweeper(ctx context.Context, repo store.Repository, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(ttl / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := repo.CleanupExpiredSessions(ctx, ttl)
				if err != nil {
					slog.Error("Session cleanup failed", "error", err)
					continue
				}
				if deleted > 0 {
					slog.Info("Expired sessions removed", "count", deleted)
				}
			}
		}
	}()
}
